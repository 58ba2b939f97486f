// Package ingest is the entry point for collar position reports: it
// persists each report, keeps the device record fresh, and triggers
// geofence and battery evaluation.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jmakela/herdguard-go/internal/alerting"
	"github.com/jmakela/herdguard-go/internal/datastore/entities"
	"github.com/jmakela/herdguard-go/internal/datastore/repository"
	"github.com/jmakela/herdguard-go/internal/geofence"
	"github.com/jmakela/herdguard-go/internal/observability/metrics"
)

// RecordRequest is one incoming position report. DeviceExternalID is the
// collar's hardware identifier; AnimalID may be supplied directly by
// trusted callers and otherwise resolves through the device link.
type RecordRequest struct {
	DeviceExternalID string
	AnimalID         uint
	Latitude         float64
	Longitude        float64
	Accuracy         *float64
	BatteryLevel     *int
}

// Ingestor records position reports and drives alert evaluation.
type Ingestor struct {
	positions       repository.PositionRepository
	devices         repository.DeviceRepository
	fences          *geofence.CachedProvider
	evaluator       *geofence.Evaluator
	manager         *alerting.Manager
	lowBatteryFloor int
	log             *zap.Logger
}

// NewIngestor creates a new position ingestor.
func NewIngestor(
	positions repository.PositionRepository,
	devices repository.DeviceRepository,
	fences *geofence.CachedProvider,
	evaluator *geofence.Evaluator,
	manager *alerting.Manager,
	lowBatteryFloor int,
	log *zap.Logger,
) *Ingestor {
	return &Ingestor{
		positions:       positions,
		devices:         devices,
		fences:          fences,
		evaluator:       evaluator,
		manager:         manager,
		lowBatteryFloor: lowBatteryFloor,
		log:             log,
	}
}

// Record persists one position report and runs containment and battery
// evaluation for the animal. An unknown device is auto-provisioned rather
// than rejected; a report from a device not yet linked to an animal is
// dropped after the device update, since there is no one to alert about.
func (i *Ingestor) Record(ctx context.Context, req RecordRequest) (*entities.PositionReport, error) {
	now := time.Now()

	device, err := i.touchDevice(ctx, req, now)
	if err != nil {
		return nil, err
	}

	animalID := req.AnimalID
	if animalID == 0 && device != nil && device.AnimalID != nil {
		animalID = *device.AnimalID
	}
	if animalID == 0 {
		i.log.Debug("dropping report from unlinked device",
			zap.String("external_id", req.DeviceExternalID))
		return nil, nil
	}

	report := &entities.PositionReport{
		AnimalID:     animalID,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Accuracy:     req.Accuracy,
		BatteryLevel: req.BatteryLevel,
		RecordedAt:   now,
	}
	if err := i.positions.Create(ctx, report); err != nil {
		return nil, err
	}
	metrics.PositionReports.Inc()

	if err := i.evaluateContainment(ctx, animalID, req); err != nil {
		return report, err
	}
	if err := i.evaluateBattery(ctx, animalID, req.BatteryLevel); err != nil {
		return report, err
	}
	return report, nil
}

// touchDevice refreshes the device row for this report, auto-provisioning a
// record for collars never seen before.
func (i *Ingestor) touchDevice(ctx context.Context, req RecordRequest, now time.Time) (*entities.Device, error) {
	if req.DeviceExternalID == "" {
		return nil, nil
	}

	device, err := i.devices.GetByExternalID(ctx, req.DeviceExternalID)
	if err != nil {
		if !errors.Is(err, repository.ErrDeviceNotFound) {
			return nil, err
		}
		signalAt := now
		device = &entities.Device{
			ExternalID:   req.DeviceExternalID,
			BatteryLevel: req.BatteryLevel,
			Online:       true,
			LastSignalAt: &signalAt,
		}
		if req.AnimalID != 0 {
			animalID := req.AnimalID
			device.AnimalID = &animalID
		}
		if err := i.devices.Create(ctx, device); err != nil {
			return nil, fmt.Errorf("failed to auto-provision device %q: %w", req.DeviceExternalID, err)
		}
		metrics.DevicesProvisioned.Inc()
		i.log.Info("auto-provisioned device",
			zap.String("external_id", req.DeviceExternalID),
			zap.Uint("device_id", device.ID))
		return device, nil
	}

	if err := i.devices.RecordSignal(ctx, device.ID, req.BatteryLevel, now); err != nil {
		return nil, err
	}
	return device, nil
}

func (i *Ingestor) evaluateContainment(ctx context.Context, animalID uint, req RecordRequest) error {
	fences, err := i.fences.ActiveFences(ctx)
	if err != nil {
		return err
	}
	contained := i.evaluator.InAnySafeZone(geofence.Point{Lat: req.Latitude, Lng: req.Longitude}, fences)
	return i.manager.HandlePosition(ctx, animalID, contained)
}

// evaluateBattery raises a low_battery warning at or below the floor and
// clears it once the collar reports above the floor again.
func (i *Ingestor) evaluateBattery(ctx context.Context, animalID uint, level *int) error {
	if level == nil {
		return nil
	}
	if *level <= i.lowBatteryFloor {
		name := i.manager.AnimalName(ctx, animalID)
		_, err := i.manager.CreateIfNone(ctx, alerting.NewLowBatteryAlert(animalID, name, *level))
		return err
	}
	_, err := i.manager.DismissActive(ctx, animalID, alerting.TypeLowBattery)
	return err
}
