// herdguard monitors GPS-collared animals: geofence containment, collar
// connectivity, alert escalation and notification fan-out.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jmakela/herdguard-go/internal/alerting"
	"github.com/jmakela/herdguard-go/internal/api"
	"github.com/jmakela/herdguard-go/internal/conf"
	"github.com/jmakela/herdguard-go/internal/datastore"
	"github.com/jmakela/herdguard-go/internal/datastore/repository"
	"github.com/jmakela/herdguard-go/internal/geofence"
	"github.com/jmakela/herdguard-go/internal/ingest"
	"github.com/jmakela/herdguard-go/internal/notification"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configFile string

	root := &cobra.Command{
		Use:   "herdguard",
		Short: "GPS livestock geofence monitoring and alerting",
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(configFile)
		},
	}
	root.Flags().StringVarP(&configFile, "config", "c", "", "path to config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	settings, err := conf.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	log, err := newLogger(settings.Log)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := datastore.Open(settings.Database.Driver, settings.Database.DSN)
	if err != nil {
		return err
	}

	alerts := repository.NewAlertRepository(db)
	animals := repository.NewAnimalRepository(db)
	devices := repository.NewDeviceRepository(db)
	fenceRepo := repository.NewGeofenceRepository(db)
	positions := repository.NewPositionRepository(db)

	bus := alerting.NewEventBus()
	defer bus.Stop()

	hub := notification.NewHub(log)
	sender := notification.NewShoutrrrSender(settings.Push.Recipients, settings.Push.Timeout.Std(), log)
	dispatcher := notification.NewDispatcher(hub, sender, sender.Recipients(), log)
	bus.Subscribe(dispatcher.HandleEvent)

	manager := alerting.NewManager(alerts, animals, bus, log)

	scheduler := alerting.NewEscalationScheduler(
		alerts, animals, bus, dispatcher,
		settings.Alerting.EscalationThreshold.Std(),
		settings.Alerting.EscalationSweepInterval.Std(),
		log)
	scheduler.Start()
	defer scheduler.Stop()

	watchdog := alerting.NewConnectivityWatchdog(devices, alerts, manager, dispatcher,
		alerting.WatchdogConfig{
			OfflineThreshold:  settings.Alerting.OfflineThreshold.Std(),
			RecoveryThreshold: settings.Alerting.RecoveryThreshold.Std(),
			LowBatteryFloor:   settings.Alerting.LowBatteryFloor,
			SweepInterval:     settings.Alerting.WatchdogSweepInterval.Std(),
		}, log)
	watchdog.Start()
	defer watchdog.Stop()

	fences := geofence.NewCachedProvider(fenceRepo, settings.Geofence.CacheTTL.Std())
	evaluator := geofence.NewEvaluator(log)
	ingestor := ingest.NewIngestor(positions, devices, fences, evaluator, manager,
		settings.Alerting.LowBatteryFloor, log)

	var mqttSource *ingest.MQTTSource
	if settings.MQTT.Enabled {
		mqttSource = ingest.NewMQTTSource(settings.MQTT, ingestor, log)
		if err := mqttSource.Start(); err != nil {
			return err
		}
		defer mqttSource.Stop()
	}

	controller := api.NewController(ingestor, alerts, manager, hub, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("listen", settings.HTTP.Listen))
		errCh <- controller.Start(settings.HTTP.Listen)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("http server failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := controller.Shutdown(ctx); err != nil {
		log.Warn("http shutdown failed", zap.Error(err))
	}

	log.Info("herdguard stopped")
	return nil
}

func newLogger(cfg conf.LogSettings) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
