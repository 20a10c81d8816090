package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jonathanlyon/critical-dream-theory-sub000/internal/events"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames; anything larger is a protocol error.
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ProgressStreamer pushes pipeline stage events to connected clients. Each
// connection subscribes to its own user's events only.
type ProgressStreamer struct {
	bus    *events.Bus
	logger *zap.Logger
}

// NewProgressStreamer creates the streamer over the given event bus.
func NewProgressStreamer(bus *events.Bus, logger *zap.Logger) *ProgressStreamer {
	return &ProgressStreamer{bus: bus, logger: logger}
}

// HandleConnection upgrades the request and streams the authenticated user's
// stage events until the peer disconnects.
func (s *ProgressStreamer) HandleConnection(c echo.Context, userID string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	ch, cancel := s.bus.Subscribe(userID)

	client := &client{
		conn:   conn,
		events: ch,
		cancel: cancel,
		logger: s.logger.With(zap.String("userID", userID)),
	}

	go client.writePump()
	go client.readPump()

	return nil
}

type client struct {
	conn   *websocket.Conn
	events <-chan events.StageEvent
	cancel func()
	logger *zap.Logger
}

// readPump drains the connection so close and pong frames are processed. The
// stream is one-way; any data frame from the peer is ignored.
func (c *client) readPump() {
	defer func() {
		c.cancel()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			return
		}
	}
}

// writePump pumps stage events to the websocket connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.events:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload, err := json.Marshal(event)
			if err != nil {
				c.logger.Error("Failed to encode stage event", zap.Error(err))
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
