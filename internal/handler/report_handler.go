package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"revintel/internal/usecase"

	"github.com/labstack/echo/v4"
)

// Excelで文字化けしないようにBOMを付ける
const utf8BOM = "\ufeff"

var csvHeader = []string{"ID", "Date", "Customer", "Product", "Category", "Quantity", "Total"}

// 絞り込み済みの売上一覧をCSVで返す
type ReportHandler struct {
	uc *usecase.AnalyticsUsecase
}

func NewReportHandler(uc *usecase.AnalyticsUsecase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

func (h *ReportHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/reports/export/csv", h.exportCSV)
}

func (h *ReportHandler) exportCSV(c echo.Context) error {
	loc := h.uc.Location()
	f, err := bindSaleFilter(c, loc)
	if err != nil {
		return writeParamError(c, err)
	}
	rows, err := h.uc.ExportRows(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}

	filename := fmt.Sprintf("sales_report_%s.csv", time.Now().In(loc).Format("20060102_150405"))
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	res.WriteHeader(http.StatusOK)

	if _, err := res.Write([]byte(utf8BOM)); err != nil {
		return err
	}
	w := csv.NewWriter(res)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		category := r.Category
		if category == "" {
			category = "-"
		}
		if err := w.Write([]string{
			strconv.FormatInt(r.ID, 10),
			r.SaleDate.In(loc).Format("2006-01-02 15:04"),
			r.CustomerName,
			r.ProductName,
			category,
			strconv.FormatInt(r.Quantity, 10),
			r.TotalPrice.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
