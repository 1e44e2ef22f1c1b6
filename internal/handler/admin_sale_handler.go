package handler

import (
	"net/http"

	"revintel/internal/usecase"

	"github.com/labstack/echo/v4"
)

type SaleCreateRequest struct {
	CustomerID int64 `json:"customer_id"`
	ProductID  int64 `json:"product_id"`
	Quantity   int64 `json:"quantity"`
}

// product_idは送られても変更不可（違えば400）
type SaleUpdateRequest struct {
	Quantity   int64  `json:"quantity"`
	CustomerID *int64 `json:"customer_id"`
	ProductID  *int64 `json:"product_id"`
}

// /admin/sales（売上台帳への書き込み）
type AdminSaleHandler struct {
	uc *usecase.SaleUsecase
}

// DI
func NewAdminSaleHandler(uc *usecase.SaleUsecase) *AdminSaleHandler {
	return &AdminSaleHandler{uc: uc}
}

func (h *AdminSaleHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/sales/:id", h.getSale)
	admin.POST("/sales", h.createSale)
	admin.PUT("/sales/:id", h.updateSale)
	admin.DELETE("/sales/:id", h.deleteSale)
}

func (h *AdminSaleHandler) getSale(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	out, err := h.uc.GetSale(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminSaleHandler) createSale(c echo.Context) error {
	var req SaleCreateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.CreateSale(c.Request().Context(), adminID, usecase.CreateSaleInput{
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminSaleHandler) updateSale(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req SaleUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.UpdateSale(c.Request().Context(), adminID, id, usecase.UpdateSaleInput{
		Quantity:   req.Quantity,
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 在庫は戻らない
func (h *AdminSaleHandler) deleteSale(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	if err := h.uc.DeleteSale(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}
