package server

import (
	"net/http"

	"revintel/internal/domain/model"
	"revintel/internal/handler"
	"revintel/internal/middleware"

	"github.com/labstack/echo/v4"
)

// ルーティングに必要なハンドラ一式
type Handlers struct {
	Auth          *handler.AuthHandler
	Analytics     *handler.AnalyticsHandler
	Report        *handler.ReportHandler
	AdminCustomer *handler.AdminCustomerHandler
	AdminProduct  *handler.AdminProductHandler
	AdminSale     *handler.AdminSaleHandler
	AdminAudit    *handler.AdminAuditHandler
}

func RegisterRoutes(e *echo.Echo, jwtSecret string, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Auth.RegisterRoutes(e)

	//集計APIは読み取りのみ
	api := e.Group("/api")
	h.Analytics.RegisterRoutes(api)
	h.Report.RegisterRoutes(e)

	//管理API
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(jwtSecret))

	staff := admin.Group("", middleware.RoleGuard(model.RoleAdmin, model.RoleManager))
	h.AdminCustomer.RegisterRoutes(staff)
	h.AdminProduct.RegisterRoutes(staff)
	h.AdminSale.RegisterRoutes(staff)

	adminOnly := admin.Group("", middleware.RoleGuard(model.RoleAdmin))
	h.AdminAudit.RegisterRoutes(adminOnly)
}
