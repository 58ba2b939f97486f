package api

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// connectedFrame is the hello sent to every new subscriber. There is no
// backlog or replay: late joiners receive only this frame and then live
// events.
type connectedFrame struct {
	Type string `json:"type"`
}

// StreamAlerts upgrades the connection to a websocket and relays lifecycle
// events from the hub until the client disconnects.
func (c *Controller) StreamAlerts(ctx echo.Context) error {
	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	id, events := c.hub.Subscribe()
	defer c.hub.Unsubscribe(id)

	if err := c.writeJSON(conn, connectedFrame{Type: "connected"}); err != nil {
		return nil
	}

	// Reader goroutine: discard client frames, detect disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := c.writeJSON(conn, event); err != nil {
				c.log.Debug("realtime subscriber write failed",
					zap.String("subscriber_id", id),
					zap.Error(err))
				return nil
			}
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return nil
			}
		case <-done:
			return nil
		}
	}
}

func (c *Controller) writeJSON(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
