package entities

import "time"

// Geofence is a named polygonal safe zone. Coordinates holds the ordered
// vertex list as a JSON array of [lat, lng] pairs. A fence with fewer than
// three vertices or an unparseable payload is skipped during evaluation.
type Geofence struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Coordinates string    `gorm:"type:text;not null" json:"coordinates"`
	Active      bool      `gorm:"not null;index" json:"active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Geofence) TableName() string {
	return "geofences"
}
