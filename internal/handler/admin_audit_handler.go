package handler

import (
	"net/http"

	"revintel/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/audit-logs（adminのみ）
type AdminAuditHandler struct {
	uc *usecase.AuditUsecase
}

func NewAdminAuditHandler(uc *usecase.AuditUsecase) *AdminAuditHandler {
	return &AdminAuditHandler{uc: uc}
}

func (h *AdminAuditHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/audit-logs", h.list)
}

func (h *AdminAuditHandler) list(c echo.Context) error {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return writeParamError(c, err)
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return writeParamError(c, err)
	}
	actor, err := optionalID(c, "actor_user_id")
	if err != nil {
		return writeParamError(c, err)
	}
	resourceID, err := optionalID(c, "resource_id")
	if err != nil {
		return writeParamError(c, err)
	}

	out, err := h.uc.ListAuditLogs(c.Request().Context(), usecase.ListAuditLogsInput{
		ActorUserID:  actor,
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		ResourceID:   resourceID,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
