package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/dmarquezluna/stockroom-backend/pkg/config"
	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
	"github.com/dmarquezluna/stockroom-backend/pkg/logger"
	"github.com/dmarquezluna/stockroom-backend/pkg/metrics"
)

// Envelope is the wire frame every observer receives.
type Envelope struct {
	Type enums.EventType `json:"type"`
	Data any             `json:"data"`
}

type outbound struct {
	eventType enums.EventType
	payload   []byte
}

type unregisterReq struct {
	conn   *connection
	reason string
}

// Hub fans typed events out to websocket observers. All registry state is
// confined to the run goroutine; callers talk to it over channels only.
type Hub struct {
	cfg     config.HubConfig
	logg    *logger.Logger
	metrics *metrics.HubMetrics

	clients    map[*connection]struct{}
	register   chan *connection
	unregister chan unregisterReq
	broadcasts chan outbound
	done       chan struct{}

	closeOnce sync.Once
	count     atomic.Int64

	upgrader websocket.Upgrader
}

// New builds a hub. Run must be started before connections are served.
func New(cfg config.HubConfig, logg *logger.Logger, hubMetrics *metrics.HubMetrics) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	return &Hub{
		cfg:        cfg,
		logg:       logg,
		metrics:    hubMetrics,
		clients:    make(map[*connection]struct{}),
		register:   make(chan *connection),
		unregister: make(chan unregisterReq),
		broadcasts: make(chan outbound, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run owns the connection registry until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.clients[conn] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			h.metrics.SetConnections(len(h.clients))

		case req := <-h.unregister:
			h.drop(req.conn, req.reason)

		case msg := <-h.broadcasts:
			h.metrics.IncEvent(msg.eventType.String())
			for conn := range h.clients {
				select {
				case conn.send <- msg.payload:
				default:
					// Full buffer means the peer stopped draining.
					// Evict it rather than stall everyone else.
					h.drop(conn, "send_failed")
				}
			}

		case <-h.done:
			for conn := range h.clients {
				h.drop(conn, "shutdown")
			}
			return
		}
	}
}

// Broadcast marshals the envelope once and hands it to the run loop. It never
// blocks and never reports failure; realtime delivery is best effort by
// contract.
func (h *Hub) Broadcast(event enums.EventType, data any) {
	payload, err := json.Marshal(Envelope{Type: event, Data: data})
	if err != nil {
		h.logg.Error(context.Background(), "marshal broadcast envelope", err)
		return
	}
	select {
	case h.broadcasts <- outbound{eventType: event, payload: payload}:
	case <-h.done:
	default:
		h.logg.Warn(context.Background(), "broadcast queue full, dropping event")
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logg.Error(r.Context(), "websocket upgrade failed", err)
		return
	}
	h.attach(ws)
}

func (h *Hub) attach(ws wsConn) {
	conn := newConnection(h, ws)
	select {
	case h.register <- conn:
	case <-h.done:
		_ = ws.Close()
		return
	}
	go conn.writePump()
	go conn.readPump()
}

// Connections reports the current registry size.
func (h *Hub) Connections() int {
	return int(h.count.Load())
}

// Close evicts every connection and stops the run loop.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// drop runs on the hub goroutine only.
func (h *Hub) drop(conn *connection, reason string) {
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	conn.close()
	h.count.Store(int64(len(h.clients)))
	h.metrics.SetConnections(len(h.clients))
	h.metrics.IncEviction(reason)
}
