package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/jmakela/herdguard-go/internal/alerting"
	"github.com/jmakela/herdguard-go/internal/observability/metrics"
)

// Dispatcher consumes lifecycle events from the event bus and fans them out
// to the realtime hub, and delivers ad-hoc push messages to every
// configured recipient.
//
// The dispatcher holds no memory of prior push sends: the alert's push_sent
// flag is the single source of truth, checked and set by the callers before
// they invoke Push.
type Dispatcher struct {
	hub        *Hub
	sender     PushSender
	recipients []string
	log        *zap.Logger
}

// NewDispatcher creates a dispatcher fanning out to the hub and the given
// push recipients.
func NewDispatcher(hub *Hub, sender PushSender, recipients []string, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		hub:        hub,
		sender:     sender,
		recipients: recipients,
		log:        log,
	}
}

// HandleEvent broadcasts a lifecycle event to all realtime subscribers.
// Registered on the event bus.
func (d *Dispatcher) HandleEvent(event *alerting.Event) {
	d.hub.Broadcast(event)
}

// Push sends the message to every configured recipient independently. A
// failed send is logged and never blocks or fails the remaining sends, and
// never surfaces into alert-state correctness.
func (d *Dispatcher) Push(_ context.Context, msg alerting.PushMessage) {
	if d.sender == nil {
		return
	}
	for _, recipient := range d.recipients {
		metrics.PushSends.Inc()
		if err := d.sender.Send(recipient, msg); err != nil {
			metrics.PushFailures.Inc()
			d.log.Error("push delivery failed",
				zap.String("tag", msg.Tag),
				zap.Error(err))
		}
	}
}
