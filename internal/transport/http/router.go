package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/srijanmgr/chiyapasal/internal/handlers"
	"github.com/srijanmgr/chiyapasal/internal/middleware/auth"
)

type Deps struct {
	OrderHandler *handlers.OrderHandler
	AdminHandler *handlers.AdminHandler
	AuthHandler  *handlers.AuthHandler
	JWTSecret    []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.GET("/menu", d.OrderHandler.GetMenu)
	v1.POST("/orders", d.OrderHandler.PlaceOrder)

	v1.POST("/staff/login", d.AuthHandler.Login)
	v1.POST("/staff/logout", d.AuthHandler.Logout)

	admin := v1.Group("/admin", auth.RequireStaff(d.JWTSecret))

	admin.GET("/dashboard", d.AdminHandler.GetDashboard)
	admin.GET("/orders", d.AdminHandler.ListOrders)
	admin.DELETE("/orders/:id", d.AdminHandler.DeleteOrder)
	admin.GET("/tables/:table/bill", d.AdminHandler.GetBill)
	admin.POST("/tables/:table/pay", d.AdminHandler.MarkTablePaid)
	admin.GET("/settings/sound", d.AdminHandler.GetSoundPreference)
	admin.PUT("/settings/sound", d.AdminHandler.SetSoundPreference)
}
