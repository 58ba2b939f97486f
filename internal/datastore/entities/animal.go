package entities

import "time"

// Animal is a GPS-collared tracked animal. Animals are managed by the
// herd CRUD layer; the monitoring core only reads them.
type Animal struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Species   string    `gorm:"size:100;default:''" json:"species"`
	DeviceID  *uint     `gorm:"index" json:"device_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Animal) TableName() string {
	return "animals"
}
