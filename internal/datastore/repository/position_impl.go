package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
)

// positionRepository implements PositionRepository.
type positionRepository struct {
	db *gorm.DB
}

// NewPositionRepository creates a new PositionRepository.
func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &positionRepository{db: db}
}

// Create appends a position report.
func (r *positionRepository) Create(ctx context.Context, report *entities.PositionReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to create position report: %w", err)
	}
	return nil
}

// ListByAnimal returns the most recent reports for an animal, newest first.
func (r *positionRepository) ListByAnimal(ctx context.Context, animalID uint, limit int) ([]entities.PositionReport, error) {
	var reports []entities.PositionReport
	query := r.db.WithContext(ctx).
		Where("animal_id = ?", animalID).
		Order("recorded_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list position reports for animal %d: %w", animalID, err)
	}
	return reports, nil
}

// animalRepository implements AnimalRepository.
type animalRepository struct {
	db *gorm.DB
}

// NewAnimalRepository creates a new AnimalRepository.
func NewAnimalRepository(db *gorm.DB) AnimalRepository {
	return &animalRepository{db: db}
}

// Get returns a single animal by ID, or ErrAnimalNotFound.
func (r *animalRepository) Get(ctx context.Context, id uint) (*entities.Animal, error) {
	var animal entities.Animal
	if err := r.db.WithContext(ctx).First(&animal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnimalNotFound
		}
		return nil, fmt.Errorf("failed to get animal %d: %w", id, err)
	}
	return &animal, nil
}

// List returns all animals.
func (r *animalRepository) List(ctx context.Context) ([]entities.Animal, error) {
	var animals []entities.Animal
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&animals).Error; err != nil {
		return nil, fmt.Errorf("failed to list animals: %w", err)
	}
	return animals, nil
}
