package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jonathanlyon/critical-dream-theory-sub000/internal/events"
)

func setupStreamerServer(t *testing.T, userID string) (*events.Bus, *httptest.Server) {
	t.Helper()
	logger := zap.NewNop()
	bus := events.NewBus(logger)
	streamer := NewProgressStreamer(bus, logger)

	e := echo.New()
	e.GET("/ws/dreams", func(c echo.Context) error {
		return streamer.HandleConnection(c, userID)
	})
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return bus, server
}

func dialStreamer(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/dreams"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestProgressStreamerDeliversStageEvents(t *testing.T) {
	bus, server := setupStreamerServer(t, "user-1")
	conn := dialStreamer(t, server)

	// The subscription races the dial; give the handler a beat to register.
	time.Sleep(50 * time.Millisecond)

	bus.Publish(events.StageEvent{
		RequestID: "req-1",
		OwnerID:   "user-1",
		Stage:     "TRANSCRIBING",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var event events.StageEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Stage != "TRANSCRIBING" || event.RequestID != "req-1" {
		t.Errorf("event = %+v", event)
	}
}

func TestProgressStreamerSkipsOtherOwners(t *testing.T) {
	bus, server := setupStreamerServer(t, "user-1")
	conn := dialStreamer(t, server)

	time.Sleep(50 * time.Millisecond)

	bus.Publish(events.StageEvent{RequestID: "req-1", OwnerID: "user-2", Stage: "DONE"})
	bus.Publish(events.StageEvent{RequestID: "req-2", OwnerID: "user-1", Stage: "RECEIVED"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var event events.StageEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.OwnerID != "user-1" {
		t.Errorf("received another owner's event: %+v", event)
	}
}
