package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
	"github.com/jmakela/herdguard-go/internal/datastore/repository"
)

// memAlertRepo is an in-memory AlertRepository with the conditional update
// semantics of the GORM implementation.
type memAlertRepo struct {
	mu     sync.Mutex
	alerts map[uint]*entities.Alert
	nextID uint
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{alerts: make(map[uint]*entities.Alert), nextID: 1}
}

func (m *memAlertRepo) Create(_ context.Context, alert *entities.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert.ID = m.nextID
	m.nextID++
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	stored := *alert
	m.alerts[alert.ID] = &stored
	return nil
}

func (m *memAlertRepo) Get(_ context.Context, id uint) (*entities.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert, ok := m.alerts[id]
	if !ok {
		return nil, repository.ErrAlertNotFound
	}
	out := *alert
	return &out, nil
}

func (m *memAlertRepo) List(_ context.Context, filter repository.AlertFilter) ([]entities.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.Alert
	for _, alert := range m.alerts {
		if filter.AnimalID > 0 && alert.AnimalID != filter.AnimalID {
			continue
		}
		if filter.Type != "" && alert.Type != filter.Type {
			continue
		}
		if filter.Active != nil && alert.Active != *filter.Active {
			continue
		}
		out = append(out, *alert)
	}
	return out, nil
}

func (m *memAlertRepo) FindActive(_ context.Context, animalID uint, alertType string) (*entities.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, alert := range m.alerts {
		if alert.AnimalID == animalID && alert.Type == alertType && alert.Active {
			out := *alert
			return &out, nil
		}
	}
	return nil, repository.ErrAlertNotFound
}

func (m *memAlertRepo) Deactivate(_ context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert, ok := m.alerts[id]
	if !ok || !alert.Active {
		return false, nil
	}
	alert.Active = false
	return true, nil
}

func (m *memAlertRepo) Escalate(_ context.Context, id uint, update repository.EscalationUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert, ok := m.alerts[id]
	if !ok || !alert.Active || alert.Escalated {
		return false, nil
	}
	at := update.EscalatedAt
	alert.Severity = update.Severity
	alert.Title = update.Title
	alert.Description = update.Description
	alert.Escalated = true
	alert.EscalatedAt = &at
	return true, nil
}

func (m *memAlertRepo) MarkPushSent(_ context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert, ok := m.alerts[id]
	if !ok || alert.PushSent {
		return false, nil
	}
	alert.PushSent = true
	return true, nil
}

func (m *memAlertRepo) ListEscalatable(_ context.Context, alertType string, createdBefore time.Time) ([]entities.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.Alert
	for _, alert := range m.alerts {
		if alert.Type == alertType && alert.Active && !alert.Escalated && alert.CreatedAt.Before(createdBefore) {
			out = append(out, *alert)
		}
	}
	return out, nil
}

func (m *memAlertRepo) activeByType(animalID uint, alertType string) []entities.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.Alert
	for _, alert := range m.alerts {
		if alert.AnimalID == animalID && alert.Type == alertType && alert.Active {
			out = append(out, *alert)
		}
	}
	return out
}

// memDeviceRepo is an in-memory DeviceRepository.
type memDeviceRepo struct {
	mu      sync.Mutex
	devices map[uint]*entities.Device
	nextID  uint
}

func newMemDeviceRepo(devices ...entities.Device) *memDeviceRepo {
	m := &memDeviceRepo{devices: make(map[uint]*entities.Device), nextID: 1}
	for i := range devices {
		d := devices[i]
		if d.ID == 0 {
			d.ID = m.nextID
		}
		if d.ID >= m.nextID {
			m.nextID = d.ID + 1
		}
		m.devices[d.ID] = &d
	}
	return m
}

func (m *memDeviceRepo) Create(_ context.Context, device *entities.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	device.ID = m.nextID
	m.nextID++
	stored := *device
	m.devices[device.ID] = &stored
	return nil
}

func (m *memDeviceRepo) Get(_ context.Context, id uint) (*entities.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	device, ok := m.devices[id]
	if !ok {
		return nil, repository.ErrDeviceNotFound
	}
	out := *device
	return &out, nil
}

func (m *memDeviceRepo) GetByExternalID(_ context.Context, externalID string) (*entities.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, device := range m.devices {
		if device.ExternalID == externalID {
			out := *device
			return &out, nil
		}
	}
	return nil, repository.ErrDeviceNotFound
}

func (m *memDeviceRepo) RecordSignal(_ context.Context, id uint, batteryLevel *int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	device, ok := m.devices[id]
	if !ok {
		return repository.ErrDeviceNotFound
	}
	device.Online = true
	device.LastSignalAt = &at
	if batteryLevel != nil {
		device.BatteryLevel = batteryLevel
	}
	return nil
}

func (m *memDeviceRepo) MarkOffline(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	device, ok := m.devices[id]
	if !ok {
		return repository.ErrDeviceNotFound
	}
	device.Online = false
	return nil
}

func (m *memDeviceRepo) ListMonitored(_ context.Context) ([]entities.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.Device
	for _, device := range m.devices {
		if device.AnimalID != nil && device.LastSignalAt != nil {
			out = append(out, *device)
		}
	}
	return out, nil
}

// memPositionRepo is an in-memory PositionRepository.
type memPositionRepo struct {
	mu      sync.Mutex
	reports []entities.PositionReport
	err     error
}

func (m *memPositionRepo) Create(_ context.Context, report *entities.PositionReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	report.ID = uint(len(m.reports) + 1)
	m.reports = append(m.reports, *report)
	return nil
}

func (m *memPositionRepo) ListByAnimal(_ context.Context, animalID uint, limit int) ([]entities.PositionReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.PositionReport
	for i := len(m.reports) - 1; i >= 0; i-- {
		if m.reports[i].AnimalID != animalID {
			continue
		}
		out = append(out, m.reports[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memPositionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}

// memAnimalRepo is an in-memory AnimalRepository.
type memAnimalRepo struct {
	animals map[uint]*entities.Animal
}

func newMemAnimalRepo(animals ...entities.Animal) *memAnimalRepo {
	m := &memAnimalRepo{animals: make(map[uint]*entities.Animal)}
	for i := range animals {
		m.animals[animals[i].ID] = &animals[i]
	}
	return m
}

func (m *memAnimalRepo) Get(_ context.Context, id uint) (*entities.Animal, error) {
	animal, ok := m.animals[id]
	if !ok {
		return nil, repository.ErrAnimalNotFound
	}
	return animal, nil
}

func (m *memAnimalRepo) List(_ context.Context) ([]entities.Animal, error) {
	var out []entities.Animal
	for _, animal := range m.animals {
		out = append(out, *animal)
	}
	return out, nil
}

// staticGeofenceRepo serves a fixed fence list.
type staticGeofenceRepo struct {
	fences []entities.Geofence
}

func (r *staticGeofenceRepo) ListActive(_ context.Context) ([]entities.Geofence, error) {
	return r.fences, nil
}
