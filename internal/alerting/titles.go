package alerting

import (
	"fmt"
	"time"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
)

// defaultAnimalName is the fallback label for alert copy when the animal
// record cannot be read.
func defaultAnimalName(animalID uint) string {
	return fmt.Sprintf("animal #%d", animalID)
}

// alertTag is the stable push notification tag for one alert, letting push
// channels collapse repeat deliveries for the same alert.
func alertTag(alertID uint) string {
	return fmt.Sprintf("alert-%d", alertID)
}

// NewGeofenceAlert builds the warning-level alert raised when an animal is
// first seen outside every active safe zone.
func NewGeofenceAlert(animalID uint, name string) *entities.Alert {
	return &entities.Alert{
		AnimalID:    animalID,
		Type:        TypeGeofence,
		Severity:    SeverityWarning,
		Title:       fmt.Sprintf("%s left the safe zone", name),
		Description: fmt.Sprintf("%s was last reported outside every active safe zone. Check the latest position.", name),
		Active:      true,
	}
}

// EscalatedGeofenceCopy returns the urgent title and description an aged
// geofence alert is rewritten with.
func EscalatedGeofenceCopy(name string, age time.Duration) (title, description string) {
	title = fmt.Sprintf("URGENT: %s is still outside the safe zone", name)
	description = fmt.Sprintf("%s has been outside the safe zone for over %d minutes without returning.",
		name, int(age.Minutes()))
	return title, description
}

// NewOfflineAlert builds the device_offline alert. Connectivity loss is
// created urgent and pre-escalated: there is no warning stage to grow out of.
func NewOfflineAlert(animalID uint, name string, silent time.Duration, now time.Time) *entities.Alert {
	at := now
	return &entities.Alert{
		AnimalID:    animalID,
		Type:        TypeDeviceOffline,
		Severity:    SeverityUrgent,
		Title:       fmt.Sprintf("Collar offline: %s", name),
		Description: fmt.Sprintf("The collar for %s has been silent for %d minutes.", name, int(silent.Minutes())),
		Active:      true,
		Escalated:   true,
		EscalatedAt: &at,
	}
}

// NewLowBatteryAlert builds the low_battery warning alert.
func NewLowBatteryAlert(animalID uint, name string, level int) *entities.Alert {
	return &entities.Alert{
		AnimalID:    animalID,
		Type:        TypeLowBattery,
		Severity:    SeverityWarning,
		Title:       fmt.Sprintf("Low collar battery: %s", name),
		Description: fmt.Sprintf("The collar for %s reported %d%% battery. Plan a recharge before the collar goes dark.", name, level),
		Active:      true,
	}
}
