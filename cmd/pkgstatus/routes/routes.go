package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/container"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/handlers"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/middleware"
)

// Register registers all application routes. The path layout keeps
// compatibility with the CI hooks of the old bot:
// /pkg, /delete/<pkg>/<status>, /add/<pkg>/<status>.
func Register(e *echo.Echo, c *container.Container) {
	statusHandler := handlers.NewStatusHandler(c.StatusService, c.Components.Logger)
	triggerHandler := handlers.NewTriggerHandler(c.ResolveService, c.Components.Logger)

	e.GET("/pkg", statusHandler.GetStatus)

	auth := middleware.TokenAuth(c.Components.Config.Service.APIToken)
	e.GET("/delete/:pkg/:status", triggerHandler.DeletePackage, auth)
	e.GET("/add/:pkg/:status", triggerHandler.AddPackage, auth)
}
