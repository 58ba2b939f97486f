package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jmakela/herdguard-go/internal/alerting"
	"github.com/jmakela/herdguard-go/internal/datastore/entities"
)

func event(id uint, eventType string) *alerting.Event {
	return &alerting.Event{
		Type:      eventType,
		Alert:     &entities.Alert{ID: id},
		Timestamp: time.Now(),
	}
}

func TestHub_BroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())

	idA, chA := hub.Subscribe()
	idB, chB := hub.Subscribe()
	defer hub.Unsubscribe(idA)
	defer hub.Unsubscribe(idB)

	hub.Broadcast(event(1, alerting.EventCreated))

	for _, ch := range []<-chan *alerting.Event{chA, chB} {
		select {
		case got := <-ch:
			assert.Equal(t, alerting.EventCreated, got.Type)
			assert.Equal(t, uint(1), got.Alert.ID)
		case <-time.After(time.Second):
			t.Fatal("subscriber never received the event")
		}
	}
}

func TestHub_LateJoinerSeesNoBacklog(t *testing.T) {
	hub := NewHub(zap.NewNop())

	hub.Broadcast(event(1, alerting.EventCreated))

	id, ch := hub.Subscribe()
	defer hub.Unsubscribe(id)

	select {
	case got := <-ch:
		t.Fatalf("expected no replay, got %s for alert %d", got.Type, got.Alert.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SlowSubscriberLosesEventsWithoutBlocking(t *testing.T) {
	hub := NewHub(zap.NewNop())

	id, ch := hub.Subscribe()
	defer hub.Unsubscribe(id)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*3; i++ {
			hub.Broadcast(event(uint(i+1), alerting.EventCreated))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}

	// The buffer holds the first events; everything past it was dropped.
	assert.Len(t, ch, subscriberBuffer)
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(zap.NewNop())

	id, ch := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	hub.Unsubscribe(id)
	assert.Equal(t, 0, hub.SubscriberCount())

	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe is a no-op, not a double close.
	hub.Unsubscribe(id)
}

func TestHub_BroadcastAfterUnsubscribeSkipsRemoved(t *testing.T) {
	hub := NewHub(zap.NewNop())

	idA, _ := hub.Subscribe()
	idB, chB := hub.Subscribe()
	hub.Unsubscribe(idA)

	hub.Broadcast(event(7, alerting.EventDismissed))

	select {
	case got := <-chB:
		assert.Equal(t, uint(7), got.Alert.ID)
	case <-time.After(time.Second):
		t.Fatal("remaining subscriber never received the event")
	}
	hub.Unsubscribe(idB)
}
