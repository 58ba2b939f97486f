package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jmakela/herdguard-go/internal/ingest"
)

// recordPositionRequest is the ingestion payload. Either device_id or
// animal_id must identify who the fix belongs to.
type recordPositionRequest struct {
	DeviceID     string   `json:"device_id"`
	AnimalID     uint     `json:"animal_id"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Accuracy     *float64 `json:"accuracy"`
	BatteryLevel *int     `json:"battery_level"`
}

// RecordPosition ingests one position report.
func (c *Controller) RecordPosition(ctx echo.Context) error {
	var req recordPositionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.DeviceID == "" && req.AnimalID == 0 {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "device_id or animal_id is required"})
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "coordinates out of range"})
	}

	report, err := c.ingestor.Record(ctx.Request().Context(), ingest.RecordRequest{
		DeviceExternalID: req.DeviceID,
		AnimalID:         req.AnimalID,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		Accuracy:         req.Accuracy,
		BatteryLevel:     req.BatteryLevel,
	})
	if err != nil {
		c.log.Error("failed to record position", zap.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to record position"})
	}
	if report == nil {
		// Device seen and refreshed but not linked to an animal yet.
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "device not linked"})
	}
	return ctx.JSON(http.StatusCreated, report)
}
