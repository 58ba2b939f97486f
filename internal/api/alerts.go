package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jmakela/herdguard-go/internal/datastore/repository"
)

const maxAlertListLimit = 200

// ListAlerts returns alerts matching optional animal_id, type and active
// query filters.
func (c *Controller) ListAlerts(ctx echo.Context) error {
	filter := repository.AlertFilter{
		Type:  ctx.QueryParam("type"),
		Limit: maxAlertListLimit,
	}
	if param := ctx.QueryParam("animal_id"); param != "" {
		id, err := strconv.ParseUint(param, 10, 32)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid animal_id"})
		}
		filter.AnimalID = uint(id)
	}
	if param := ctx.QueryParam("active"); param != "" {
		active := param == "true"
		filter.Active = &active
	}

	alerts, err := c.alerts.List(ctx.Request().Context(), filter)
	if err != nil {
		c.log.Error("failed to list alerts", zap.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list alerts"})
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// DismissAlert manually dismisses one alert. Dismissing a missing or
// already-inactive alert is reported as not found rather than an error.
func (c *Controller) DismissAlert(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid alert id"})
	}

	dismissed, err := c.manager.Dismiss(ctx.Request().Context(), uint(id))
	if err != nil {
		c.log.Error("failed to dismiss alert", zap.Uint64("alert_id", id), zap.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to dismiss alert"})
	}
	if !dismissed {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "no active alert with that id"})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "dismissed"})
}
