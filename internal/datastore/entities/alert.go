package entities

import "time"

// Alert is a monitoring alert for one animal. At most one active alert may
// exist per (AnimalID, Type); dismissal deactivates the row in place so the
// alert history is preserved.
type Alert struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	AnimalID    uint       `gorm:"not null;index:idx_alerts_animal_type_active,priority:1" json:"animal_id"`
	Type        string     `gorm:"size:50;not null;index:idx_alerts_animal_type_active,priority:2" json:"type"`
	Severity    string     `gorm:"size:20;not null" json:"severity"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"size:1000;default:''" json:"description"`
	Active      bool       `gorm:"not null;index:idx_alerts_animal_type_active,priority:3" json:"active"`
	Escalated   bool       `gorm:"not null;default:false" json:"escalated"`
	EscalatedAt *time.Time `json:"escalated_at"`
	PushSent    bool       `gorm:"not null;default:false" json:"push_sent"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Alert) TableName() string {
	return "alerts"
}
