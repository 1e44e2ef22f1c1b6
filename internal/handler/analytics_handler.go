package handler

import (
	"net/http"

	"revintel/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/sales の集計API（ダッシュボードがポーリングする）
type AnalyticsHandler struct {
	uc *usecase.AnalyticsUsecase
}

// DI
func NewAnalyticsHandler(uc *usecase.AnalyticsUsecase) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc}
}

func (h *AnalyticsHandler) RegisterRoutes(g *echo.Group) {
	sales := g.Group("/sales")
	sales.GET("/kpis", h.kpis)
	sales.GET("/by-period", h.byPeriod)
	sales.GET("/by-category", h.byCategory)
	sales.GET("/top-customers", h.topCustomers)
	sales.GET("/products", h.products)
	sales.GET("/list", h.list)
}

func (h *AnalyticsHandler) kpis(c echo.Context) error {
	f, err := bindSaleFilter(c, h.uc.Location())
	if err != nil {
		return writeParamError(c, err)
	}
	out, err := h.uc.KPIs(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) byPeriod(c echo.Context) error {
	f, err := bindSaleFilter(c, h.uc.Location())
	if err != nil {
		return writeParamError(c, err)
	}
	out, err := h.uc.ByPeriod(c.Request().Context(), f, c.QueryParam("group_by"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) byCategory(c echo.Context) error {
	f, err := bindSaleFilter(c, h.uc.Location())
	if err != nil {
		return writeParamError(c, err)
	}
	out, err := h.uc.ByCategory(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) topCustomers(c echo.Context) error {
	f, err := bindSaleFilter(c, h.uc.Location())
	if err != nil {
		return writeParamError(c, err)
	}
	// limit（default 10）
	limit, err := queryInt(c, "limit", usecase.DefaultRankLimit)
	if err != nil {
		return writeParamError(c, err)
	}
	out, err := h.uc.TopCustomers(c.Request().Context(), f, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) products(c echo.Context) error {
	f, err := bindSaleFilter(c, h.uc.Location())
	if err != nil {
		return writeParamError(c, err)
	}
	limit, err := queryInt(c, "limit", usecase.DefaultRankLimit)
	if err != nil {
		return writeParamError(c, err)
	}
	out, err := h.uc.Products(c.Request().Context(), f, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) list(c echo.Context) error {
	f, err := bindSaleFilter(c, h.uc.Location())
	if err != nil {
		return writeParamError(c, err)
	}
	// page（default 1）
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return writeParamError(c, err)
	}
	// per_page（default 25）
	perPage, err := queryInt(c, "per_page", usecase.DefaultPerPage)
	if err != nil {
		return writeParamError(c, err)
	}
	out, err := h.uc.List(c.Request().Context(), f, page, perPage)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
