// Package notification fans lifecycle events out to realtime subscribers
// and push-channel recipients.
package notification

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jmakela/herdguard-go/internal/alerting"
	"github.com/jmakela/herdguard-go/internal/observability/metrics"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls this far behind starts losing events rather than blocking the
// broadcast; delivery is at-most-once by contract.
const subscriberBuffer = 16

// Hub multicasts lifecycle events to currently connected subscribers.
// There is no backlog or replay: a late joiner sees only events published
// after it subscribed.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan *alerting.Event
	log  *zap.Logger
}

// NewHub creates an empty subscriber hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		subs: make(map[string]chan *alerting.Event),
		log:  log,
	}
}

// Subscribe registers a new subscriber and returns its ID and event channel.
func (h *Hub) Subscribe() (string, <-chan *alerting.Event) {
	id := uuid.NewString()
	ch := make(chan *alerting.Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	metrics.RealtimeSubscribers.Inc()
	h.log.Debug("realtime subscriber connected", zap.String("subscriber_id", id))
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()

	if ok {
		close(ch)
		metrics.RealtimeSubscribers.Dec()
		h.log.Debug("realtime subscriber disconnected", zap.String("subscriber_id", id))
	}
}

// Broadcast delivers the event to every connected subscriber, at most once
// each. A slow subscriber's full buffer drops the event for that subscriber
// only; broadcast never blocks.
func (h *Hub) Broadcast(event *alerting.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.log.Warn("dropping event for slow realtime subscriber",
				zap.String("subscriber_id", id),
				zap.String("event_type", event.Type))
		}
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
