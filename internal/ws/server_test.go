package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"goldledger/internal/engine"
	"goldledger/internal/host"
)

type recorder struct {
	mu     sync.Mutex
	events []engine.Event
}

func (r *recorder) Dispatch(ev engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type closedBridge struct{}

func (closedBridge) Submit(...host.Envelope) error { return host.ErrClosed }

func dial(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(s.HandleWS))
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, typ int, payload string) Ack {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(typ, []byte(payload)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var ack Ack
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	return ack
}

func TestEnvelopeFramesReachEngine(t *testing.T) {
	rec := &recorder{}
	mirror := host.NewMirror(nil)
	srv := NewServer(host.NewBridge(mirror, host.Inline{}, rec), 64)
	conn := dial(t, srv)

	ack := roundTrip(t, conn, websocket.TextMessage, `{"type":"balance_changed","balance":1300}`)
	if !ack.Ok || ack.Error != "" {
		t.Fatalf("ack = %+v, want ok", ack)
	}
	if got := mirror.Balance(); got != 1300 {
		t.Fatalf("mirror balance = %d, want 1300", got)
	}
	if got := rec.len(); got != 1 {
		t.Fatalf("dispatched = %d, want 1", got)
	}

	ack = roundTrip(t, conn, websocket.TextMessage, `{"type":"venue_opened"}`)
	if ack.Ok || ack.Error != errInvalidEnvelope || ack.Detail == "" {
		t.Fatalf("ack = %+v, want invalid_envelope", ack)
	}
	ack = roundTrip(t, conn, websocket.BinaryMessage, `{"type":"balance_changed","balance":1}`)
	if ack.Error != errTextOnly {
		t.Fatalf("ack = %+v, want text_frames_only", ack)
	}
	if got := rec.len(); got != 1 {
		t.Fatalf("dispatched = %d, want 1", got)
	}
}

func TestStoppedEngineClosesConnection(t *testing.T) {
	srv := NewServer(closedBridge{}, 0)
	conn := dial(t, srv)

	ack := roundTrip(t, conn, websocket.TextMessage, `{"type":"balance_changed","balance":5}`)
	if ack.Error != errEngineStopped {
		t.Fatalf("ack = %+v, want engine_stopped", ack)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected connection to close")
	}
}
