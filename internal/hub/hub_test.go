package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmarquezluna/stockroom-backend/pkg/config"
	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
	"github.com/dmarquezluna/stockroom-backend/pkg/logger"
	"github.com/dmarquezluna/stockroom-backend/pkg/metrics"
)

func newTestHub(t *testing.T, cfg config.HubConfig) *Hub {
	t.Helper()
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = time.Second
	}
	logg := logger.New(logger.Options{ServiceName: "hub-test"})
	h := New(cfg, logg, metrics.NewHubMetrics(nil))
	go h.Run()
	t.Cleanup(h.Close)
	return h
}

func dialTestHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestBroadcastDeliversEnvelope(t *testing.T) {
	h := newTestHub(t, config.HubConfig{SendBuffer: 8})
	first := dialTestHub(t, h)
	second := dialTestHub(t, h)
	waitFor(t, 2*time.Second, func() bool { return h.Connections() == 2 }, "clients never registered")

	h.Broadcast(enums.EventTransactionCreated, map[string]any{"id": "t-1"})

	for _, ws := range []*websocket.Conn{first, second} {
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, payload, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var envelope Envelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if envelope.Type != enums.EventTransactionCreated {
			t.Fatalf("type = %s, want transaction_created", envelope.Type)
		}
		if envelope.Data == nil {
			t.Fatal("data missing from envelope")
		}
	}
}

type fakeSocket struct {
	mu         sync.Mutex
	frames     [][]byte
	blockWrite bool
	unblock    chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

func newFakeSocket(blockWrite bool) *fakeSocket {
	return &fakeSocket{
		blockWrite: blockWrite,
		unblock:    make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (f *fakeSocket) WriteMessage(messageType int, data []byte) error {
	if messageType != websocket.TextMessage {
		return nil
	}
	if f.blockWrite {
		select {
		case <-f.unblock:
		case <-f.done:
		}
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeSocket) ReadMessage() (int, []byte, error) {
	<-f.done
	return 0, nil, websocket.ErrCloseSent
}

func (f *fakeSocket) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeSocket) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeSocket) SetPongHandler(func(string) error) {}

func (f *fakeSocket) Close() error {
	f.closeOnce.Do(func() { close(f.done) })
	return nil
}

func (f *fakeSocket) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func TestBroadcastIsolatesStalledConnection(t *testing.T) {
	h := newTestHub(t, config.HubConfig{SendBuffer: 1, HeartbeatInterval: time.Hour})

	healthy := newFakeSocket(false)
	stalled := newFakeSocket(true)
	h.attach(healthy)
	h.attach(stalled)
	waitFor(t, 2*time.Second, func() bool { return h.Connections() == 2 }, "connections never registered")

	// The stalled peer's write pump hangs on the first frame, its buffer
	// holds the second, and the third overflows and evicts it. Pace the
	// sends on the healthy peer so only the stalled one ever backs up.
	for i := 0; i < 5; i++ {
		h.Broadcast(enums.EventBillUpdated, map[string]any{"seq": i})
		want := i + 1
		waitFor(t, 2*time.Second, func() bool { return healthy.frameCount() == want }, "healthy connection missed a frame")
	}

	waitFor(t, 2*time.Second, func() bool { return h.Connections() == 1 }, "stalled connection never evicted")
}

func TestHeartbeatEvictsSilentPeer(t *testing.T) {
	h := newTestHub(t, config.HubConfig{
		HeartbeatInterval: 50 * time.Millisecond,
		WriteTimeout:      time.Second,
		SendBuffer:        8,
	})
	ws := dialTestHub(t, h)
	waitFor(t, 2*time.Second, func() bool { return h.Connections() == 1 }, "client never registered")

	// Never read from ws: pings are never answered, so the read deadline
	// (two heartbeat intervals) lapses on the server side.
	_ = ws
	waitFor(t, 3*time.Second, func() bool { return h.Connections() == 0 }, "silent peer never evicted")
}

func TestCloseTearsDownConnections(t *testing.T) {
	h := newTestHub(t, config.HubConfig{SendBuffer: 8})
	ws := dialTestHub(t, h)
	waitFor(t, 2*time.Second, func() bool { return h.Connections() == 1 }, "client never registered")

	h.Close()

	waitFor(t, 2*time.Second, func() bool { return h.Connections() == 0 }, "registry not emptied on close")
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}

func TestBroadcastAfterCloseDoesNotBlock(t *testing.T) {
	h := newTestHub(t, config.HubConfig{SendBuffer: 1})
	h.Close()

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			h.Broadcast(enums.EventTransactionUpdated, i)
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked after close")
	}
}
