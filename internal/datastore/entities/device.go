package entities

import "time"

// Device is a GPS collar. ExternalID is the hardware identifier collars
// report with; devices are auto-provisioned when an unknown ExternalID
// sends its first position report. Mutated on every report.
type Device struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ExternalID   string     `gorm:"size:100;not null;uniqueIndex" json:"external_id"`
	AnimalID     *uint      `gorm:"index" json:"animal_id"`
	BatteryLevel *int       `json:"battery_level"`
	Online       bool       `gorm:"not null;default:false" json:"online"`
	LastSignalAt *time.Time `gorm:"index" json:"last_signal_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Device) TableName() string {
	return "devices"
}
