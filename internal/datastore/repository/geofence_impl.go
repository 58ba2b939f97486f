package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
)

// geofenceRepository implements GeofenceRepository.
type geofenceRepository struct {
	db *gorm.DB
}

// NewGeofenceRepository creates a new GeofenceRepository.
func NewGeofenceRepository(db *gorm.DB) GeofenceRepository {
	return &geofenceRepository{db: db}
}

// ListActive returns all active safe-zone polygons.
func (r *geofenceRepository) ListActive(ctx context.Context) ([]entities.Geofence, error) {
	var fences []entities.Geofence
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&fences).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active geofences: %w", err)
	}
	return fences, nil
}
