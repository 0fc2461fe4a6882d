package hub

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn is the slice of *websocket.Conn the hub relies on.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

type connection struct {
	hub  *Hub
	ws   wsConn
	send chan []byte

	closeOnce sync.Once
}

func newConnection(h *Hub, ws wsConn) *connection {
	return &connection{
		hub:  h,
		ws:   ws,
		send: make(chan []byte, h.cfg.SendBuffer),
	}
}

// pongWait is one full heartbeat cycle of grace: a peer that misses a ping
// and its successor is considered gone.
func (c *connection) pongWait() time.Duration {
	return 2 * c.hub.cfg.HeartbeatInterval
}

// writePump drains the send channel and owns all writes, including pings.
// The ticker lives here so a slow peer can never stall the hub goroutine.
func (c *connection) writePump() {
	ticker := time.NewTicker(c.hub.cfg.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		c.requestDrop("send_failed")
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				// Registry closed us.
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes the peer solely to process pongs and detect dead
// connections. Inbound frames carry no meaning and are discarded.
func (c *connection) readPump() {
	reason := "closed"
	defer func() { c.requestDrop(reason) }()

	_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait()))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pongWait()))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				reason = "stale"
			}
			return
		}
	}
}

func (c *connection) requestDrop(reason string) {
	select {
	case c.hub.unregister <- unregisterReq{conn: c, reason: reason}:
	case <-c.hub.done:
	}
}

// close runs on the hub goroutine only.
func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.send)
		_ = c.ws.Close()
	})
}
