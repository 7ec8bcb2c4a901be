package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"GeoSentry/internal/domain/models"
	xhttp "GeoSentry/pkg/http"
	xlogger "GeoSentry/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
	wsSendBuffer = 32
)

// wsEnvelope wraps every streamed message with its kind.
type wsEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan wsEnvelope
}

// TrackFunc processes one streamed location frame.
type TrackFunc func(ctx context.Context, req *models.TrackRequest) (*models.TrackResult, error)

// Hub fans processed track results and prediction snapshots out to websocket
// subscribers, and accepts inbound location frames for processing. Slow
// clients lose messages rather than stalling the pipeline.
type Hub struct {
	logger   *xlogger.Logger
	upgrader websocket.Upgrader
	track    TrackFunc

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func NewHub(logger *xlogger.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// OnTrack installs the handler for inbound location frames. Connections made
// before this is set are read as subscriber-only.
func (h *Hub) OnTrack(fn TrackFunc) {
	h.track = fn
}

// Broadcast queues a message for every connected client. Never blocks; a
// client with a full buffer skips the message.
func (h *Hub) Broadcast(kind string, data interface{}) {
	msg := wsEnvelope{Type: kind, Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve upgrades the request and streams messages until the client leaves.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		}
		return nil
	}

	client := &wsClient{
		conn: conn,
		send: make(chan wsEnvelope, wsSendBuffer),
	}
	h.register(client)

	go h.writeLoop(client)
	h.readLoop(client)
	return nil
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// readLoop consumes inbound frames. Each non-empty frame is a track request;
// the processed result reaches the client through the hub broadcast, so a
// sender observes its own assessment alongside everyone else's. Clients that
// never send remain pure subscribers.
func (h *Hub) readLoop(c *wsClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if h.track == nil || len(payload) == 0 {
			continue
		}
		h.handleFrame(c, payload)
	}
}

func (h *Hub) handleFrame(c *wsClient, payload []byte) {
	var req models.TrackRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		h.reply(c, "error", map[string]string{"message": "malformed location frame"})
		return
	}
	if verrs := xhttp.ValidateStruct(&req); verrs != nil {
		h.reply(c, "error", verrs)
		return
	}
	if _, err := h.track(context.Background(), &req); err != nil {
		if h.logger != nil {
			h.logger.Warn("websocket track failed", xlogger.String("subject_id", req.SubjectID), xlogger.Error(err))
		}
		h.reply(c, "error", map[string]string{"message": "track failed"})
	}
}

// reply queues a message for a single client without blocking.
func (h *Hub) reply(c *wsClient, kind string, data interface{}) {
	select {
	case c.send <- wsEnvelope{Type: kind, Data: data}:
	default:
	}
}

func (h *Hub) writeLoop(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(wsWriteWait))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
