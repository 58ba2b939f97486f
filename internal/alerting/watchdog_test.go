package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
)

func testWatchdogConfig() WatchdogConfig {
	return WatchdogConfig{
		OfflineThreshold:  10 * time.Minute,
		RecoveryThreshold: 5 * time.Minute,
		LowBatteryFloor:   20,
		SweepInterval:     30 * time.Second,
	}
}

func newTestWatchdog(t *testing.T, devices ...entities.Device) (*ConnectivityWatchdog, *mockAlertRepo, *capturePusher) {
	t.Helper()
	alertRepo := newMockAlertRepo()
	deviceRepo := newMockDeviceRepo(devices...)
	animals := newMockAnimalRepo(entities.Animal{ID: 1, Name: "Bella"})
	bus := NewEventBus()
	t.Cleanup(bus.Stop)

	manager := NewManager(alertRepo, animals, bus, testLogger())
	pusher := &capturePusher{}
	watchdog := NewConnectivityWatchdog(deviceRepo, alertRepo, manager, pusher,
		testWatchdogConfig(), testLogger())
	return watchdog, alertRepo, pusher
}

func monitoredDevice(silentFor time.Duration, battery int) entities.Device {
	animalID := uint(1)
	lastSignal := time.Now().Add(-silentFor)
	level := battery
	return entities.Device{
		ExternalID:   "collar-001",
		AnimalID:     &animalID,
		BatteryLevel: &level,
		Online:       true,
		LastSignalAt: &lastSignal,
	}
}

func TestWatchdog_SilentDeviceWithHealthyBatteryRaisesOneAlert(t *testing.T) {
	watchdog, alerts, pusher := newTestWatchdog(t, monitoredDevice(12*time.Minute, 50))

	watchdog.Sweep(t.Context())

	require.Equal(t, 1, alerts.activeCount(1, TypeDeviceOffline))
	alert, err := alerts.FindActive(t.Context(), 1, TypeDeviceOffline)
	require.NoError(t, err)
	assert.Equal(t, SeverityUrgent, alert.Severity, "offline alerts are born urgent")
	assert.True(t, alert.Escalated)
	require.NotNil(t, alert.EscalatedAt)
	assert.Equal(t, 1, pusher.count(), "push fires immediately")

	// Repeat sweeps must not duplicate the alert or the push.
	watchdog.Sweep(t.Context())
	watchdog.Sweep(t.Context())
	assert.Equal(t, 1, alerts.activeCount(1, TypeDeviceOffline))
	assert.Equal(t, 1, pusher.count())
}

func TestWatchdog_DrainedBatteryIsNotAConnectivityFault(t *testing.T) {
	watchdog, alerts, pusher := newTestWatchdog(t, monitoredDevice(12*time.Minute, 10))

	watchdog.Sweep(t.Context())

	assert.Equal(t, 0, alerts.activeCount(1, TypeDeviceOffline),
		"a collar that died from an empty battery is not offline")
	assert.Equal(t, 0, pusher.count())
}

func TestWatchdog_RecentSignalClearsOfflineAlert(t *testing.T) {
	watchdog, alerts, _ := newTestWatchdog(t, monitoredDevice(4*time.Minute, 50))

	alert := NewOfflineAlert(1, "Bella", 12*time.Minute, time.Now())
	require.NoError(t, alerts.Create(t.Context(), alert))
	require.Equal(t, 1, alerts.activeCount(1, TypeDeviceOffline))

	watchdog.Sweep(t.Context())

	assert.Equal(t, 0, alerts.activeCount(1, TypeDeviceOffline),
		"a device reporting again within the recovery threshold clears the alert")
}

func TestWatchdog_DeadZoneNeitherRaisesNorClears(t *testing.T) {
	// 7 minutes silent sits between recovery (5m) and offline (10m).
	watchdog, alerts, _ := newTestWatchdog(t, monitoredDevice(7*time.Minute, 50))

	watchdog.Sweep(t.Context())
	assert.Equal(t, 0, alerts.activeCount(1, TypeDeviceOffline), "dead zone must not raise")

	alert := NewOfflineAlert(1, "Bella", 12*time.Minute, time.Now())
	require.NoError(t, alerts.Create(t.Context(), alert))

	watchdog.Sweep(t.Context())
	assert.Equal(t, 1, alerts.activeCount(1, TypeDeviceOffline), "dead zone must not clear either")
}

func TestWatchdog_UnlinkedDevicesAreIgnored(t *testing.T) {
	lastSignal := time.Now().Add(-time.Hour)
	level := 90
	watchdog, alerts, _ := newTestWatchdog(t, entities.Device{
		ExternalID:   "collar-spare",
		BatteryLevel: &level,
		LastSignalAt: &lastSignal,
	})

	watchdog.Sweep(t.Context())

	assert.Equal(t, 0, alerts.activeCount(1, TypeDeviceOffline))
}
