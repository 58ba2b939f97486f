package entities

import "time"

// PositionReport is a single GPS fix from a collar. Append-only: reports
// are never mutated or deleted once recorded.
type PositionReport struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AnimalID     uint      `gorm:"not null;index:idx_position_animal_recorded,priority:1" json:"animal_id"`
	Latitude     float64   `gorm:"not null" json:"latitude"`
	Longitude    float64   `gorm:"not null" json:"longitude"`
	Accuracy     *float64  `json:"accuracy"`
	BatteryLevel *int      `json:"battery_level"`
	RecordedAt   time.Time `gorm:"not null;index:idx_position_animal_recorded,priority:2" json:"recorded_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (PositionReport) TableName() string {
	return "position_reports"
}
