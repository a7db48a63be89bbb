package mockapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// conn is one connected websocket client. Admin sessions receive the panel
// broadcast; patient sessions only receive events addressed to their ID.
type conn struct {
	ws        *websocket.Conn
	admin     bool
	patientID string
	send      chan []byte
}

// Hub fans real-time events out over websocket connections. The wire format
// is one JSON envelope per text message: {"event": name, "data": {...}}.
type Hub struct {
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*conn]struct{}
}

// NewHub creates an empty hub.
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			// dev backend, any origin is fine
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*conn]struct{}),
	}
}

// Broadcast sends an event to every admin connection.
func (h *Hub) Broadcast(event string, data any) {
	h.emit(event, data, func(c *conn) bool { return c.admin })
}

// Notify sends an event to the connections of one patient.
func (h *Hub) Notify(patientID, event string, data any) {
	h.emit(event, data, func(c *conn) bool { return c.patientID == patientID })
}

func (h *Hub) emit(event string, data any, match func(*conn) bool) {
	msg, err := json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: event, Data: data})
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("failed to encode event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if !match(c) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			// slow consumer, drop it
			h.drop(c)
		}
	}
}

// drop closes and forgets a connection. Caller holds h.mu.
func (h *Hub) drop(c *conn) {
	delete(h.conns, c)
	close(c.send)
}

// serve upgrades the request and pumps outbound events until the peer goes
// away. admin/patientID come from the authenticated token.
func (h *Hub) serve(w http.ResponseWriter, r *http.Request, admin bool, patientID string) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &conn{ws: ws, admin: admin, patientID: patientID, send: make(chan []byte, 32)}
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	h.log.WithFields(logrus.Fields{"admin": admin, "patient_id": patientID}).Info("websocket client connected")

	go func() {
		for msg := range c.send {
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
		ws.Close() //nolint:errcheck
	}()

	// inbound messages are ignored; reading just detects the close
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	if _, ok := h.conns[c]; ok {
		h.drop(c)
	}
	h.mu.Unlock()
	h.log.Info("websocket client disconnected")
}
