// Package repository defines the storage contracts the monitoring core
// depends on. Implementations live alongside as GORM-backed stores; tests
// substitute in-memory mocks.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
)

// Sentinel errors returned by repository lookups.
var (
	ErrAlertNotFound  = errors.New("alert not found")
	ErrAnimalNotFound = errors.New("animal not found")
	ErrDeviceNotFound = errors.New("device not found")
)

// AlertRepository handles alert persistence. The conditional mutations
// (Deactivate, Escalate, MarkPushSent) re-check their guard flags inside the
// UPDATE itself and report via the bool return whether the row transitioned,
// so overlapping sweeps and ingestion-triggered mutations stay idempotent.
type AlertRepository interface {
	Create(ctx context.Context, alert *entities.Alert) error
	Get(ctx context.Context, id uint) (*entities.Alert, error)
	List(ctx context.Context, filter AlertFilter) ([]entities.Alert, error)

	// FindActive returns the single active alert for (animalID, alertType),
	// or ErrAlertNotFound.
	FindActive(ctx context.Context, animalID uint, alertType string) (*entities.Alert, error)

	// Deactivate sets active=false. Returns false when the alert is missing
	// or already inactive.
	Deactivate(ctx context.Context, id uint) (bool, error)

	// Escalate promotes an active, not-yet-escalated alert in a single
	// conditional update. Returns false when the guard did not match.
	Escalate(ctx context.Context, id uint, update EscalationUpdate) (bool, error)

	// MarkPushSent claims the push side effect for an alert. Returns true
	// exactly once per alert.
	MarkPushSent(ctx context.Context, id uint) (bool, error)

	// ListEscalatable returns active, not-yet-escalated alerts of the given
	// type created before the cutoff.
	ListEscalatable(ctx context.Context, alertType string, createdBefore time.Time) ([]entities.Alert, error)
}

// EscalationUpdate carries the fields rewritten when an alert is promoted.
type EscalationUpdate struct {
	Severity    string
	Title       string
	Description string
	EscalatedAt time.Time
}

// AlertFilter controls alert listing queries.
type AlertFilter struct {
	AnimalID uint
	Type     string
	Active   *bool
	Limit    int
}

// DeviceRepository handles collar device persistence.
type DeviceRepository interface {
	Create(ctx context.Context, device *entities.Device) error
	Get(ctx context.Context, id uint) (*entities.Device, error)

	// GetByExternalID looks a device up by its hardware identifier, or
	// returns ErrDeviceNotFound.
	GetByExternalID(ctx context.Context, externalID string) (*entities.Device, error)

	// RecordSignal updates last-signal timestamp, battery level and marks the
	// device online. Battery is left untouched when nil.
	RecordSignal(ctx context.Context, id uint, batteryLevel *int, at time.Time) error

	// MarkOffline clears the online flag.
	MarkOffline(ctx context.Context, id uint) error

	// ListMonitored returns devices with an associated animal and at least
	// one recorded signal, which is the watchdog's sweep population.
	ListMonitored(ctx context.Context) ([]entities.Device, error)
}

// GeofenceRepository reads safe-zone polygons. Fences are managed by the
// CRUD layer; the core only lists active ones.
type GeofenceRepository interface {
	ListActive(ctx context.Context) ([]entities.Geofence, error)
}

// PositionRepository appends GPS fixes. Reports are never updated or deleted.
type PositionRepository interface {
	Create(ctx context.Context, report *entities.PositionReport) error
	ListByAnimal(ctx context.Context, animalID uint, limit int) ([]entities.PositionReport, error)
}

// AnimalRepository reads tracked animals.
type AnimalRepository interface {
	Get(ctx context.Context, id uint) (*entities.Animal, error)
	List(ctx context.Context) ([]entities.Animal, error)
}
