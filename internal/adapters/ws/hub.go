package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"hotel_gestion/internal/adapters/observability"
	"hotel_gestion/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
	snapshotLimit  = 50
)

// Hub fans notification events out to connected staff sessions. New
// connections receive an auth ack followed by a snapshot of the pending
// (unread) notifications; after that they only see incremental events.
type Hub struct {
	notifications domain.NotificationRepository

	mu      sync.RWMutex
	clients map[*client]struct{}

	upgrader websocket.Upgrader
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func NewHub(notifications domain.NotificationRepository) *Hub {
	return &Hub{
		notifications: notifications,
		clients:       map[*client]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The upgrade sits behind session auth; reverse proxies make
			// origin checks unreliable here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Broadcast implements domain.Broadcaster. A client whose buffer is full is
// dropped rather than allowed to stall every other session.
func (h *Hub) Broadcast(n domain.Notification) {
	frame, err := json.Marshal(Message{Type: TypeNotification, Notification: &n})
	if err != nil {
		log.Error().Err(err).Msg("marshal notification frame")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
			observability.ObserveWSMessage(TypeNotification, "out")
		default:
			h.dropLocked(c)
		}
	}
}

// Handle upgrades the request and runs the session. The caller has already
// authenticated it.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize), done: make(chan struct{})}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	observability.WSSessions.Inc()

	c.enqueue(Message{Type: TypeAuthAck})
	h.sendSnapshot(r.Context(), c)

	go c.writePump()
	go c.readPump()
}

func (h *Hub) sendSnapshot(ctx context.Context, c *client) {
	pending, err := h.notifications.ListNotifications(ctx, true, snapshotLimit)
	if err != nil {
		log.Error().Err(err).Msg("load notification snapshot")
		c.enqueue(Message{Type: TypeError, Error: "snapshot unavailable"})
		return
	}
	if pending == nil {
		pending = []domain.Notification{}
	}
	c.enqueue(Message{Type: TypeSnapshot, Notifications: pending})
	observability.ObserveWSMessage(TypeSnapshot, "out")
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	h.dropLocked(c)
	h.mu.Unlock()
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	// send stays open: readPump may still be enqueueing a reply. done is
	// the teardown signal and has exactly one closing owner.
	close(c.done)
	observability.WSSessions.Dec()
}

// Close disconnects every client, for server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
		_ = c.conn.Close()
	}
}

func (c *client) enqueue(m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- b:
	default:
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.drop(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			c.enqueue(Message{Type: TypeError, Error: "malformed frame"})
			continue
		}
		observability.ObserveWSMessage(m.Type, "in")

		switch m.Type {
		case TypePing:
			c.enqueue(Message{Type: TypeHeartbeatAck})
		default:
			c.enqueue(Message{Type: TypeError, Error: "unknown type " + m.Type})
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
