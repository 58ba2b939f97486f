package alerting

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
	"github.com/jmakela/herdguard-go/internal/datastore/repository"
)

// WatchdogConfig holds the connectivity thresholds.
//
// The gap between RecoveryThreshold and OfflineThreshold is a deliberate
// dead zone: a collar silent for between the two is neither alerted on nor
// cleared, which stops offline alerts from flapping near the boundary.
type WatchdogConfig struct {
	OfflineThreshold  time.Duration
	RecoveryThreshold time.Duration
	LowBatteryFloor   int
	SweepInterval     time.Duration
}

// ConnectivityWatchdog periodically sweeps collar devices for staleness and
// drives device_offline alerts through the lifecycle manager's primitives.
type ConnectivityWatchdog struct {
	devices repository.DeviceRepository
	alerts  repository.AlertRepository
	manager *Manager
	pusher  Pusher
	cfg     WatchdogConfig
	log     *zap.Logger

	stopCh chan struct{}
}

// NewConnectivityWatchdog creates a new watchdog.
func NewConnectivityWatchdog(
	devices repository.DeviceRepository,
	alerts repository.AlertRepository,
	manager *Manager,
	pusher Pusher,
	cfg WatchdogConfig,
	log *zap.Logger,
) *ConnectivityWatchdog {
	return &ConnectivityWatchdog{
		devices: devices,
		alerts:  alerts,
		manager: manager,
		pusher:  pusher,
		cfg:     cfg,
		log:     log,
	}
}

// Start launches the periodic sweep goroutine.
func (w *ConnectivityWatchdog) Start() {
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	go func() {
		ticker := time.NewTicker(w.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
				w.Sweep(ctx)
				cancel()
			case <-stopCh:
				return
			}
		}
	}()
}

// Stop halts the periodic sweep. Safe to call without Start.
func (w *ConnectivityWatchdog) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

// Sweep runs one connectivity pass over all monitored devices. Exported for
// deterministic tests. A failure on one device is logged and the sweep
// continues with the rest.
func (w *ConnectivityWatchdog) Sweep(ctx context.Context) {
	devices, err := w.devices.ListMonitored(ctx)
	if err != nil {
		w.log.Error("watchdog sweep query failed", zap.Error(err))
		return
	}

	now := time.Now()
	for i := range devices {
		if err := w.checkDevice(ctx, &devices[i], now); err != nil {
			w.log.Error("watchdog device check failed",
				zap.Uint("device_id", devices[i].ID),
				zap.Error(err))
		}
	}
}

func (w *ConnectivityWatchdog) checkDevice(ctx context.Context, device *entities.Device, now time.Time) error {
	// ListMonitored filters these out, but guard anyway: the sweep must
	// never dereference a collar that has not reported.
	if device.AnimalID == nil || device.LastSignalAt == nil {
		return nil
	}

	silent := now.Sub(*device.LastSignalAt)
	animalID := *device.AnimalID

	switch {
	case silent > w.cfg.OfflineThreshold:
		return w.raiseOffline(ctx, device, animalID, silent, now)
	case silent <= w.cfg.RecoveryThreshold:
		return w.clearOffline(ctx, animalID)
	default:
		// Dead zone between recovery and offline thresholds: no action.
		return nil
	}
}

// raiseOffline creates the device_offline alert unless the silence is
// explained by a drained battery. A collar that died from an empty battery
// is a charging problem, not a connectivity fault.
func (w *ConnectivityWatchdog) raiseOffline(ctx context.Context, device *entities.Device, animalID uint, silent time.Duration, now time.Time) error {
	if device.BatteryLevel != nil && *device.BatteryLevel <= w.cfg.LowBatteryFloor {
		return nil
	}

	name := w.manager.AnimalName(ctx, animalID)
	alert := NewOfflineAlert(animalID, name, silent, now)

	created, err := w.manager.CreateIfNone(ctx, alert)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	if device.Online {
		if err := w.devices.MarkOffline(ctx, device.ID); err != nil {
			w.log.Warn("failed to mark device offline",
				zap.Uint("device_id", device.ID),
				zap.Error(err))
		}
	}

	// Offline alerts are born urgent, so the push goes out immediately,
	// claimed through the push_sent guard like any other alert.
	if w.pusher != nil {
		claimed, err := w.alerts.MarkPushSent(ctx, alert.ID)
		if err != nil {
			return err
		}
		if claimed {
			w.pusher.Push(ctx, PushMessage{
				Title:              alert.Title,
				Body:               alert.Description,
				Tag:                alertTag(alert.ID),
				RequireInteraction: true,
			})
		}
	}
	return nil
}

func (w *ConnectivityWatchdog) clearOffline(ctx context.Context, animalID uint) error {
	_, err := w.manager.DismissActive(ctx, animalID, TypeDeviceOffline)
	return err
}
