package alerting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
	"github.com/jmakela/herdguard-go/internal/datastore/repository"
	"github.com/jmakela/herdguard-go/internal/observability/metrics"
)

// PushMessage is an ad-hoc push notification payload.
type PushMessage struct {
	Title              string `json:"title"`
	Body               string `json:"body"`
	Tag                string `json:"tag"`
	RequireInteraction bool   `json:"require_interaction"`
}

// Pusher delivers a push message to all configured recipients. Delivery is
// fire-and-forget relative to committed alert state: failures are logged by
// the implementation, never surfaced into lifecycle correctness.
type Pusher interface {
	Push(ctx context.Context, msg PushMessage)
}

// keyedMutex serializes read-modify-write cycles per (animal, type) key.
// The lock map grows with distinct keys, which is bounded by the herd size
// times the number of alert types.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func lockKey(animalID uint, alertType string) string {
	return fmt.Sprintf("%d/%s", animalID, alertType)
}

// Manager owns the alert state machine per (animal, type):
// NONE → ACTIVE(warning) → ACTIVE(escalated) → DISMISSED, with DISMISSED
// re-entering ACTIVE on a fresh violation. It enforces the
// at-most-one-active-alert invariant: mutations for the same key are
// serialized through a keyed mutex and the repository re-checks its guard
// flags inside each conditional update.
type Manager struct {
	alerts  repository.AlertRepository
	animals repository.AnimalRepository
	bus     *EventBus
	log     *zap.Logger
	locks   keyedMutex
}

// NewManager creates a new alert lifecycle manager.
func NewManager(alerts repository.AlertRepository, animals repository.AnimalRepository, bus *EventBus, log *zap.Logger) *Manager {
	return &Manager{
		alerts:  alerts,
		animals: animals,
		bus:     bus,
		log:     log,
	}
}

// HandlePosition applies one containment verdict to the animal's geofence
// alert state. Outside with no active alert creates one; inside with an
// active alert dismisses it; every other combination is a no-op, so
// repeated identical reports are idempotent.
func (m *Manager) HandlePosition(ctx context.Context, animalID uint, contained bool) error {
	unlock := m.locks.lock(lockKey(animalID, TypeGeofence))
	defer unlock()

	existing, err := m.findActive(ctx, animalID, TypeGeofence)
	if err != nil {
		return err
	}

	if contained {
		if existing == nil {
			return nil
		}
		_, err := m.dismissLocked(ctx, existing)
		return err
	}

	if existing != nil {
		return nil
	}
	return m.createLocked(ctx, NewGeofenceAlert(animalID, m.animalName(ctx, animalID)))
}

// CreateIfNone creates the alert unless an active alert of the same type
// already exists for the animal. Returns whether a new alert was created.
func (m *Manager) CreateIfNone(ctx context.Context, alert *entities.Alert) (bool, error) {
	unlock := m.locks.lock(lockKey(alert.AnimalID, alert.Type))
	defer unlock()

	existing, err := m.findActive(ctx, alert.AnimalID, alert.Type)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if err := m.createLocked(ctx, alert); err != nil {
		return false, err
	}
	return true, nil
}

// DismissActive dismisses the active alert of the given type for the
// animal. Returns false as a no-op when none exists.
func (m *Manager) DismissActive(ctx context.Context, animalID uint, alertType string) (bool, error) {
	unlock := m.locks.lock(lockKey(animalID, alertType))
	defer unlock()

	existing, err := m.findActive(ctx, animalID, alertType)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	return m.dismissLocked(ctx, existing)
}

// Dismiss dismisses one alert by ID, regardless of type. Returns false as a
// no-op when the alert is missing or already inactive; no event is emitted
// in that case.
func (m *Manager) Dismiss(ctx context.Context, id uint) (bool, error) {
	alert, err := m.alerts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			return false, nil
		}
		return false, err
	}

	unlock := m.locks.lock(lockKey(alert.AnimalID, alert.Type))
	defer unlock()
	return m.dismissLocked(ctx, alert)
}

// AnimalName resolves the display name used in alert copy, falling back to
// a numeric label when the animal record is unavailable.
func (m *Manager) AnimalName(ctx context.Context, animalID uint) string {
	return m.animalName(ctx, animalID)
}

func (m *Manager) animalName(ctx context.Context, animalID uint) string {
	animal, err := m.animals.Get(ctx, animalID)
	if err != nil || animal.Name == "" {
		return defaultAnimalName(animalID)
	}
	return animal.Name
}

func (m *Manager) findActive(ctx context.Context, animalID uint, alertType string) (*entities.Alert, error) {
	alert, err := m.alerts.FindActive(ctx, animalID, alertType)
	if err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return alert, nil
}

// createLocked persists the alert and only then publishes the created
// event. A persistence failure aborts the whole call: no partial mutation,
// no event.
func (m *Manager) createLocked(ctx context.Context, alert *entities.Alert) error {
	if err := m.alerts.Create(ctx, alert); err != nil {
		return err
	}

	metrics.AlertsCreated.WithLabelValues(alert.Type).Inc()
	m.log.Info("alert created",
		zap.Uint("alert_id", alert.ID),
		zap.Uint("animal_id", alert.AnimalID),
		zap.String("type", alert.Type),
		zap.String("severity", alert.Severity))

	m.bus.Publish(&Event{Type: EventCreated, Alert: alert})
	return nil
}

// dismissLocked deactivates the alert and publishes the dismissed event.
// The active=true guard inside Deactivate resolves concurrent dismissals to
// a single winner; losers emit nothing.
func (m *Manager) dismissLocked(ctx context.Context, alert *entities.Alert) (bool, error) {
	ok, err := m.alerts.Deactivate(ctx, alert.ID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	dismissed := *alert
	dismissed.Active = false

	metrics.AlertsDismissed.WithLabelValues(alert.Type).Inc()
	m.log.Info("alert dismissed",
		zap.Uint("alert_id", alert.ID),
		zap.Uint("animal_id", alert.AnimalID),
		zap.String("type", alert.Type))

	m.bus.Publish(&Event{Type: EventDismissed, Alert: &dismissed})
	return true, nil
}
