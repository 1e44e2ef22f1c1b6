package handler

import (
	"net/http"

	"revintel/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// /admin/customers
type AdminCustomerHandler struct {
	uc *usecase.CustomerUsecase
}

// DI
func NewAdminCustomerHandler(uc *usecase.CustomerUsecase) *AdminCustomerHandler {
	return &AdminCustomerHandler{uc: uc}
}

func (h *AdminCustomerHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/customers", h.listCustomers)
	admin.GET("/customers/:id", h.getCustomer)
	admin.GET("/customers/:id/stats", h.customerStats)
	admin.POST("/customers", h.createCustomer)
	admin.PUT("/customers/:id", h.updateCustomer)
	admin.DELETE("/customers/:id", h.deleteCustomer)
}

func (h *AdminCustomerHandler) listCustomers(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return writeParamError(c, err)
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return writeParamError(c, err)
	}
	out, err := h.uc.ListCustomers(c.Request().Context(), usecase.ListCustomersInput{
		Page:  page,
		Limit: limit,
		Q:     c.QueryParam("q"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminCustomerHandler) getCustomer(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	out, err := h.uc.GetCustomer(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminCustomerHandler) customerStats(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	out, err := h.uc.CustomerStats(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminCustomerHandler) createCustomer(c echo.Context) error {
	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	out, err := h.uc.CreateCustomer(c.Request().Context(), usecase.CustomerInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminCustomerHandler) updateCustomer(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	out, err := h.uc.UpdateCustomer(c.Request().Context(), id, usecase.CustomerInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 売上ごと削除
func (h *AdminCustomerHandler) deleteCustomer(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	if err := h.uc.DeleteCustomer(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}
