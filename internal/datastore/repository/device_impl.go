package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
)

// deviceRepository implements DeviceRepository.
type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new DeviceRepository.
func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

// Create persists a new device row.
func (r *deviceRepository) Create(ctx context.Context, device *entities.Device) error {
	if err := r.db.WithContext(ctx).Create(device).Error; err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

// Get returns a single device by ID, or ErrDeviceNotFound.
func (r *deviceRepository) Get(ctx context.Context, id uint) (*entities.Device, error) {
	var device entities.Device
	if err := r.db.WithContext(ctx).First(&device, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to get device %d: %w", id, err)
	}
	return &device, nil
}

// GetByExternalID looks a device up by hardware identifier.
func (r *deviceRepository) GetByExternalID(ctx context.Context, externalID string) (*entities.Device, error) {
	var device entities.Device
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to get device %q: %w", externalID, err)
	}
	return &device, nil
}

// RecordSignal marks the device online with a fresh last-signal timestamp.
func (r *deviceRepository) RecordSignal(ctx context.Context, id uint, batteryLevel *int, at time.Time) error {
	updates := map[string]any{
		"online":         true,
		"last_signal_at": at,
	}
	if batteryLevel != nil {
		updates["battery_level"] = *batteryLevel
	}
	result := r.db.WithContext(ctx).Model(&entities.Device{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to record signal for device %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// MarkOffline clears the online flag.
func (r *deviceRepository) MarkOffline(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&entities.Device{}).Where("id = ?", id).Update("online", false)
	if result.Error != nil {
		return fmt.Errorf("failed to mark device %d offline: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// ListMonitored returns the watchdog sweep population: devices linked to an
// animal that have reported at least once.
func (r *deviceRepository) ListMonitored(ctx context.Context) ([]entities.Device, error) {
	var devices []entities.Device
	err := r.db.WithContext(ctx).
		Where("animal_id IS NOT NULL AND last_signal_at IS NOT NULL").
		Order("id ASC").
		Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list monitored devices: %w", err)
	}
	return devices, nil
}
