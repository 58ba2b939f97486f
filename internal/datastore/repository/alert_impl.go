package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
)

// alertRepository implements AlertRepository.
type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

// Create persists a new alert row.
func (r *alertRepository) Create(ctx context.Context, alert *entities.Alert) error {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// Get returns a single alert by ID, or ErrAlertNotFound.
func (r *alertRepository) Get(ctx context.Context, id uint) (*entities.Alert, error) {
	var alert entities.Alert
	if err := r.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to get alert %d: %w", id, err)
	}
	return &alert, nil
}

// List returns alerts matching the given filter, newest first.
func (r *alertRepository) List(ctx context.Context, filter AlertFilter) ([]entities.Alert, error) {
	var alerts []entities.Alert
	query := r.db.WithContext(ctx).Order("created_at DESC")

	if filter.AnimalID > 0 {
		query = query.Where("animal_id = ?", filter.AnimalID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	if err := query.Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// FindActive returns the active alert for (animalID, alertType), or
// ErrAlertNotFound. The at-most-one-active invariant makes First sufficient.
func (r *alertRepository) FindActive(ctx context.Context, animalID uint, alertType string) (*entities.Alert, error) {
	var alert entities.Alert
	err := r.db.WithContext(ctx).
		Where("animal_id = ? AND type = ? AND active = ?", animalID, alertType, true).
		First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to find active alert for animal %d: %w", animalID, err)
	}
	return &alert, nil
}

// Deactivate soft-dismisses an alert. The active=true guard inside the
// UPDATE makes concurrent dismissals resolve to exactly one winner.
func (r *alertRepository) Deactivate(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.Alert{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if result.Error != nil {
		return false, fmt.Errorf("failed to deactivate alert %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Escalate promotes an alert to urgent in one conditional update. The
// escalated=false guard is re-checked at mutation time, so re-running a
// sweep over an already-escalated alert is a no-op.
func (r *alertRepository) Escalate(ctx context.Context, id uint, update EscalationUpdate) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.Alert{}).
		Where("id = ? AND active = ? AND escalated = ?", id, true, false).
		Updates(map[string]any{
			"severity":     update.Severity,
			"title":        update.Title,
			"description":  update.Description,
			"escalated":    true,
			"escalated_at": update.EscalatedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to escalate alert %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkPushSent claims the push side effect. The push_sent=false guard means
// exactly one caller wins even when sweeps overlap.
func (r *alertRepository) MarkPushSent(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.Alert{}).
		Where("id = ? AND push_sent = ?", id, false).
		Update("push_sent", true)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark alert %d push sent: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListEscalatable returns active, unescalated alerts of the given type old
// enough to promote.
func (r *alertRepository) ListEscalatable(ctx context.Context, alertType string, createdBefore time.Time) ([]entities.Alert, error) {
	var alerts []entities.Alert
	err := r.db.WithContext(ctx).
		Where("type = ? AND active = ? AND escalated = ? AND created_at < ?",
			alertType, true, false, createdBefore).
		Order("created_at ASC").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list escalatable alerts: %w", err)
	}
	return alerts, nil
}
