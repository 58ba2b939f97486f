package alerting

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
	"github.com/jmakela/herdguard-go/internal/datastore/repository"
	"github.com/jmakela/herdguard-go/internal/observability/metrics"
)

// sweepTimeout bounds one full sweep pass against the repository.
const sweepTimeout = 30 * time.Second

// EscalationScheduler periodically promotes geofence alerts that have been
// active longer than the escalation threshold to urgent severity. Only
// geofence alerts are swept: device_offline alerts are born urgent and
// never pass through here.
//
// Sweeps may overlap ingestion-triggered mutations on the same rows; the
// repository's conditional updates re-check the escalated and push_sent
// guards at mutation time, so overlapping runs stay exactly-once.
type EscalationScheduler struct {
	alerts    repository.AlertRepository
	animals   repository.AnimalRepository
	bus       *EventBus
	pusher    Pusher
	threshold time.Duration
	interval  time.Duration
	log       *zap.Logger

	stopCh   chan struct{}
	stopOnce func()
}

// NewEscalationScheduler creates a scheduler with the given age threshold
// and sweep interval. The interval should be much shorter than the
// threshold; conf.Validate enforces that for configured values.
func NewEscalationScheduler(
	alerts repository.AlertRepository,
	animals repository.AnimalRepository,
	bus *EventBus,
	pusher Pusher,
	threshold, interval time.Duration,
	log *zap.Logger,
) *EscalationScheduler {
	return &EscalationScheduler{
		alerts:    alerts,
		animals:   animals,
		bus:       bus,
		pusher:    pusher,
		threshold: threshold,
		interval:  interval,
		log:       log,
	}
}

// Start launches the periodic sweep goroutine.
func (s *EscalationScheduler) Start() {
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
				s.Sweep(ctx)
				cancel()
			case <-stopCh:
				return
			}
		}
	}()
}

// Stop halts the periodic sweep. Safe to call without Start.
func (s *EscalationScheduler) Stop() {
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
}

// Sweep runs one escalation pass. Exported so tests and operational tooling
// can trigger it deterministically without waiting for the ticker.
func (s *EscalationScheduler) Sweep(ctx context.Context) {
	now := time.Now()
	due, err := s.alerts.ListEscalatable(ctx, TypeGeofence, now.Add(-s.threshold))
	if err != nil {
		s.log.Error("escalation sweep query failed", zap.Error(err))
		return
	}

	for i := range due {
		if err := s.escalate(ctx, &due[i], now); err != nil {
			// One failed row must not abort the rest of the sweep.
			s.log.Error("failed to escalate alert",
				zap.Uint("alert_id", due[i].ID),
				zap.Error(err))
		}
	}
}

func (s *EscalationScheduler) escalate(ctx context.Context, alert *entities.Alert, now time.Time) error {
	name := s.animalName(ctx, alert.AnimalID)
	title, description := EscalatedGeofenceCopy(name, now.Sub(alert.CreatedAt))

	ok, err := s.alerts.Escalate(ctx, alert.ID, repository.EscalationUpdate{
		Severity:    SeverityUrgent,
		Title:       title,
		Description: description,
		EscalatedAt: now,
	})
	if err != nil {
		return err
	}
	if !ok {
		// Another sweep or a dismissal won the race; nothing to do.
		return nil
	}

	escalated := *alert
	escalated.Severity = SeverityUrgent
	escalated.Title = title
	escalated.Description = description
	escalated.Escalated = true
	escalated.EscalatedAt = &now

	metrics.AlertsEscalated.Inc()
	s.log.Info("alert escalated",
		zap.Uint("alert_id", alert.ID),
		zap.Uint("animal_id", alert.AnimalID),
		zap.Duration("age", now.Sub(alert.CreatedAt)))

	s.bus.Publish(&Event{Type: EventEscalated, Alert: &escalated})

	// Claim the push side effect before dispatching so it fires exactly
	// once per alert even across overlapping sweeps.
	if s.pusher != nil {
		claimed, err := s.alerts.MarkPushSent(ctx, alert.ID)
		if err != nil {
			return err
		}
		if claimed {
			s.pusher.Push(ctx, PushMessage{
				Title:              title,
				Body:               description,
				Tag:                alertTag(alert.ID),
				RequireInteraction: true,
			})
		}
	}
	return nil
}

func (s *EscalationScheduler) animalName(ctx context.Context, animalID uint) string {
	animal, err := s.animals.Get(ctx, animalID)
	if err != nil || animal.Name == "" {
		return defaultAnimalName(animalID)
	}
	return animal.Name
}
