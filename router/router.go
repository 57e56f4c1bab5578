package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	cellCtrl "seedbot/pkg/cell/controller"
	deviceCtrl "seedbot/pkg/device/controller"
	fieldCtrl "seedbot/pkg/field/controller"
	"seedbot/pkg/middleware"
	sowingCtrl "seedbot/pkg/sowing/controller"
)

type Options struct {
	Log         zerolog.Logger
	APIToken    string
	CORSOrigins []string
}

type Handlers struct {
	Sowing  sowingCtrl.SowingController
	Fields  fieldCtrl.FieldController
	Cells   cellCtrl.CellController
	Devices deviceCtrl.DeviceController
	Health  interface{ Health(echo.Context) error }
	// Push serves the websocket channel; nil disables /ws.
	Push http.Handler
}

func New(e *echo.Echo, h Handlers, opt Options) *echo.Echo {
	e.HideBanner = true
	e.HidePort = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(opt.Log))
	e.Use(middleware.RequestMetrics())
	if len(opt.CORSOrigins) > 0 {
		e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{AllowOrigins: opt.CORSOrigins}))
	}

	e.GET("/health", h.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if h.Push != nil {
		e.GET("/ws", echo.WrapHandler(h.Push))
	}

	api := e.Group("", middleware.OperatorToken(opt.APIToken))

	api.POST("/sowing", h.Sowing.Start)
	api.PUT("/sowing", h.Sowing.Toggle)
	api.DELETE("/sowing", h.Sowing.Stop)
	api.GET("/sowing", h.Sowing.Progress)
	api.GET("/sowing/status", h.Sowing.Status)

	api.GET("/fields/:id", h.Fields.Get)
	api.GET("/fields/:id/cells", h.Cells.List)
	api.GET("/fields/:id/cells.xlsx", h.Cells.Export)

	api.GET("/devices", h.Devices.List)
	api.GET("/devices/:name", h.Devices.Get)
	return e
}
