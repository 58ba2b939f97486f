// Package alerting implements the alert lifecycle: creation, deduplication,
// time-based escalation, connectivity watchdog and dismissal.
package alerting

// Alert types. Each type is an independent state machine per animal; an
// animal may hold a geofence and a device_offline alert at the same time.
const (
	TypeGeofence      = "geofence"
	TypeDeviceOffline = "device_offline"
	TypeLowBattery    = "low_battery"
)

// Alert severities.
const (
	SeverityWarning = "warning"
	SeverityUrgent  = "urgent"
)

// Lifecycle event types published on the event bus.
const (
	EventCreated   = "created"
	EventDismissed = "dismissed"
	EventEscalated = "escalated"
)
