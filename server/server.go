// Package server exposes the render protocol over HTTP for the renderd
// daemon.
package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/drummonds/pdfview/backend"
	"github.com/drummonds/pdfview/config"
	"github.com/drummonds/pdfview/database"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// Handler will inject the variables needed into routes
type Handler struct {
	Registry     *backend.Registry
	History      database.History // nil when history is disabled
	ServerConfig config.ServerConfig
}

// NewRouter builds the echo instance with every renderd route registered
func NewRouter(handler *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	e.GET("/health", handler.Health)
	e.POST("/api/documents", handler.OpenDocument)
	e.POST("/api/documents/:id/pages", handler.OpenPage)
	e.GET("/api/documents/:id/text", handler.DocumentText)
	e.DELETE("/api/documents/:id", handler.CloseDocument)
	e.POST("/api/pages/:id/render", handler.RenderPage)
	e.DELETE("/api/pages/:id", handler.ClosePage)
	e.GET("/api/renders/recent", handler.RecentRenders)
	return e
}
