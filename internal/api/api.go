// Package api exposes the HTTP surface: position ingestion, alert queries,
// the realtime alert stream and operational endpoints.
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jmakela/herdguard-go/internal/alerting"
	"github.com/jmakela/herdguard-go/internal/datastore/repository"
	"github.com/jmakela/herdguard-go/internal/ingest"
	"github.com/jmakela/herdguard-go/internal/notification"
)

// Controller wires the HTTP routes to the monitoring core.
type Controller struct {
	echo     *echo.Echo
	ingestor *ingest.Ingestor
	alerts   repository.AlertRepository
	manager  *alerting.Manager
	hub      *notification.Hub
	log      *zap.Logger
}

// NewController creates the controller and registers all routes.
func NewController(
	ingestor *ingest.Ingestor,
	alerts repository.AlertRepository,
	manager *alerting.Manager,
	hub *notification.Hub,
	log *zap.Logger,
) *Controller {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	c := &Controller{
		echo:     e,
		ingestor: ingestor,
		alerts:   alerts,
		manager:  manager,
		hub:      hub,
		log:      log,
	}
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	v1 := c.echo.Group("/api/v1")
	v1.POST("/positions", c.RecordPosition)
	v1.GET("/alerts", c.ListAlerts)
	v1.POST("/alerts/:id/dismiss", c.DismissAlert)
	v1.GET("/alerts/stream", c.StreamAlerts)

	c.echo.GET("/healthz", c.Healthz)
	c.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Echo returns the underlying echo instance, mainly for tests.
func (c *Controller) Echo() *echo.Echo {
	return c.echo
}

// Start begins serving on the given address, blocking until shutdown.
func (c *Controller) Start(listen string) error {
	return c.echo.Start(listen)
}

// Shutdown stops the HTTP server gracefully.
func (c *Controller) Shutdown(ctx context.Context) error {
	return c.echo.Shutdown(ctx)
}

// Healthz reports liveness.
func (c *Controller) Healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
