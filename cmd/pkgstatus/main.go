package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/container"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/routes"
	"github.com/plct-archrv/pkgstatus/common/bootstrap"
	"github.com/plct-archrv/pkgstatus/common/metrics"
)

func main() {
	ctx := context.Background()

	// Optional .env for local development
	_ = godotenv.Load()

	components, err := bootstrap.Setup(ctx, "pkgstatus")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap pkgstatus: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e, serviceContainer)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	routes.Register(e, serviceContainer)

	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, c *container.Container) {
	e.GET("/health", func(ec echo.Context) error {
		if c.Components.DB != nil {
			if err := c.Components.DB.Health(ec.Request().Context()); err != nil {
				return ec.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"error":  err.Error(),
				})
			}
		}
		return ec.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "pkgstatus",
		})
	})
}

// startServer starts the Echo server and blocks until an error or a
// shutdown signal. Components.Shutdown (deferred in main) drains the
// notifier after the HTTP side stops accepting work.
func startServer(e *echo.Echo, components *bootstrap.Components) {
	port := components.Config.Service.Port
	log := components.Logger

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("starting pkgstatus", "port", port)
		serverErrors <- e.Start(fmt.Sprintf(":%d", port))
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("server error", "error", err)

	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := e.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
			_ = e.Close()
		}

		log.Info("http server stopped")
	}
}
