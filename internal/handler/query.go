package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	repo "revintel/internal/repository"

	"github.com/labstack/echo/v4"
)

const dateLayout = "2006-01-02"

// クエリの不正。メッセージはそのまま400で返す
type paramError struct {
	msg string
}

func (e *paramError) Error() string { return e.msg }

func invalidParam(name string) error {
	return &paramError{msg: "invalid " + name}
}

// 集計共通の絞り込み条件をクエリから読む。日付はloc基準の日付
func bindSaleFilter(c echo.Context, loc *time.Location) (repo.SaleFilter, error) {
	var f repo.SaleFilter

	if v := strings.TrimSpace(c.QueryParam("date_from")); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, loc)
		if err != nil {
			return f, invalidParam("date_from")
		}
		f.DateFrom = &t
	}
	if v := strings.TrimSpace(c.QueryParam("date_to")); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, loc)
		if err != nil {
			return f, invalidParam("date_to")
		}
		f.DateTo = &t
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return f, &paramError{msg: "date_from must be <= date_to"}
	}

	f.Category = strings.TrimSpace(c.QueryParam("category"))
	f.Search = strings.TrimSpace(c.QueryParam("search"))

	var err error
	if f.ProductID, err = optionalID(c, "product"); err != nil {
		return f, err
	}
	if f.CustomerID, err = optionalID(c, "customer"); err != nil {
		return f, err
	}
	return f, nil
}

func optionalID(c echo.Context, name string) (*int64, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, invalidParam(name)
	}
	return &id, nil
}

// 空ならdef
func queryInt(c echo.Context, name string, def int) (int, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalidParam(name)
	}
	return n, nil
}

// paramErrorなら400にする
func writeParamError(c echo.Context, err error) error {
	var pe *paramError
	if errors.As(err, &pe) {
		return badRequest(c, pe.msg)
	}
	return writeError(c, err)
}
