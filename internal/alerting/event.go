package alerting

import (
	"sync"
	"time"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
)

// Event is a lifecycle event for one alert. The alert snapshot reflects the
// state already committed to the repository; events are only published after
// a successful persist.
type Event struct {
	Type      string          `json:"type"` // EventCreated, EventDismissed, EventEscalated
	Alert     *entities.Alert `json:"alert"`
	Timestamp time.Time       `json:"timestamp"`
}

// EventHandler processes lifecycle events.
type EventHandler func(event *Event)

const (
	// eventBufferSize is the capacity of the async event channel. Events
	// are dropped if the buffer is full to avoid blocking the ingestion
	// and sweep paths on slow subscribers.
	eventBufferSize = 1000
)

// EventBus is an async pub/sub for lifecycle events. Publish is
// non-blocking: events go to a buffered channel drained by a worker
// goroutine, so state-mutating callers are never blocked by notification
// delivery.
type EventBus struct {
	handlers []EventHandler
	mu       sync.RWMutex
	eventCh  chan *Event
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewEventBus creates a new event bus and starts its worker.
func NewEventBus() *EventBus {
	b := &EventBus{
		handlers: make([]EventHandler, 0),
		eventCh:  make(chan *Event, eventBufferSize),
		stopCh:   make(chan struct{}),
	}
	go b.processLoop()
	return b
}

// Subscribe registers a handler for lifecycle events.
func (b *EventBus) Subscribe(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish enqueues an event for async processing. Non-blocking: if the
// buffer is full the event is dropped. Events are silently discarded after
// Stop.
func (b *EventBus) Publish(event *Event) {
	select {
	case <-b.stopCh:
		return
	default:
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	default:
		// Buffer full, drop the event rather than block the caller
	}
}

// Stop shuts down the worker goroutine. Safe to call multiple times.
func (b *EventBus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
}

// processLoop drains the event channel and dispatches to handlers.
func (b *EventBus) processLoop() {
	for {
		select {
		case event := <-b.eventCh:
			b.dispatch(event)
		case <-b.stopCh:
			// Drain remaining events before exiting
			for {
				select {
				case event := <-b.eventCh:
					b.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (b *EventBus) dispatch(event *Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.safeCall(handler, event)
	}
}

// safeCall invokes a handler with panic recovery so a panicking subscriber
// cannot kill the bus goroutine.
func (b *EventBus) safeCall(handler EventHandler, event *Event) {
	defer func() {
		recover() //nolint:errcheck // intentionally swallowed to keep bus alive
	}()
	handler(event)
}
