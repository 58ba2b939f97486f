package alerting

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
	"github.com/jmakela/herdguard-go/internal/datastore/repository"
)

// mockAlertRepo is an in-memory AlertRepository with the same conditional
// update semantics as the GORM implementation.
type mockAlertRepo struct {
	mu        sync.Mutex
	alerts    map[uint]*entities.Alert
	nextID    uint
	createErr error
	updateErr error
}

func newMockAlertRepo() *mockAlertRepo {
	return &mockAlertRepo{alerts: make(map[uint]*entities.Alert), nextID: 1}
}

func (m *mockAlertRepo) Create(_ context.Context, alert *entities.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	alert.ID = m.nextID
	m.nextID++
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	stored := *alert
	m.alerts[alert.ID] = &stored
	return nil
}

func (m *mockAlertRepo) Get(_ context.Context, id uint) (*entities.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert, ok := m.alerts[id]
	if !ok {
		return nil, repository.ErrAlertNotFound
	}
	out := *alert
	return &out, nil
}

func (m *mockAlertRepo) List(_ context.Context, filter repository.AlertFilter) ([]entities.Alert, error) {
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

func (m *mockAlertRepo) FindActive(_ context.Context, animalID uint, alertType string) (*entities.Alert, error) {
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

func (m *mockAlertRepo) Deactivate(_ context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return false, m.updateErr
	}
	alert, ok := m.alerts[id]
	if !ok || !alert.Active {
		return false, nil
	}
	alert.Active = false
	return true, nil
}

func (m *mockAlertRepo) Escalate(_ context.Context, id uint, update repository.EscalationUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return false, m.updateErr
	}
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

func (m *mockAlertRepo) MarkPushSent(_ context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert, ok := m.alerts[id]
	if !ok || alert.PushSent {
		return false, nil
	}
	alert.PushSent = true
	return true, nil
}

func (m *mockAlertRepo) ListEscalatable(_ context.Context, alertType string, createdBefore time.Time) ([]entities.Alert, error) {
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

// activeCount returns the number of active alerts for (animalID, type).
func (m *mockAlertRepo) activeCount(animalID uint, alertType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, alert := range m.alerts {
		if alert.AnimalID == animalID && alert.Type == alertType && alert.Active {
			count++
		}
	}
	return count
}

func (m *mockAlertRepo) get(id uint) entities.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.alerts[id]
}

// mockAnimalRepo is an in-memory AnimalRepository.
type mockAnimalRepo struct {
	animals map[uint]*entities.Animal
}

func newMockAnimalRepo(animals ...entities.Animal) *mockAnimalRepo {
	m := &mockAnimalRepo{animals: make(map[uint]*entities.Animal)}
	for i := range animals {
		m.animals[animals[i].ID] = &animals[i]
	}
	return m
}

func (m *mockAnimalRepo) Get(_ context.Context, id uint) (*entities.Animal, error) {
	animal, ok := m.animals[id]
	if !ok {
		return nil, repository.ErrAnimalNotFound
	}
	return animal, nil
}

func (m *mockAnimalRepo) List(_ context.Context) ([]entities.Animal, error) {
	var out []entities.Animal
	for _, animal := range m.animals {
		out = append(out, *animal)
	}
	return out, nil
}

// mockDeviceRepo is an in-memory DeviceRepository.
type mockDeviceRepo struct {
	mu      sync.Mutex
	devices map[uint]*entities.Device
	nextID  uint
}

func newMockDeviceRepo(devices ...entities.Device) *mockDeviceRepo {
	m := &mockDeviceRepo{devices: make(map[uint]*entities.Device), nextID: 1}
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

func (m *mockDeviceRepo) Create(_ context.Context, device *entities.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	device.ID = m.nextID
	m.nextID++
	stored := *device
	m.devices[device.ID] = &stored
	return nil
}

func (m *mockDeviceRepo) Get(_ context.Context, id uint) (*entities.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	device, ok := m.devices[id]
	if !ok {
		return nil, repository.ErrDeviceNotFound
	}
	out := *device
	return &out, nil
}

func (m *mockDeviceRepo) GetByExternalID(_ context.Context, externalID string) (*entities.Device, error) {
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

func (m *mockDeviceRepo) RecordSignal(_ context.Context, id uint, batteryLevel *int, at time.Time) error {
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

func (m *mockDeviceRepo) MarkOffline(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	device, ok := m.devices[id]
	if !ok {
		return repository.ErrDeviceNotFound
	}
	device.Online = false
	return nil
}

func (m *mockDeviceRepo) ListMonitored(_ context.Context) ([]entities.Device, error) {
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

// capturePusher records push messages for assertions.
type capturePusher struct {
	mu       sync.Mutex
	messages []PushMessage
}

func (p *capturePusher) Push(_ context.Context, msg PushMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

func (p *capturePusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
