package notify

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event types pushed to subscribed front-ends.
const (
	EventToast   = "toast"
	EventRefresh = "refresh"
)

// sendTimeout bounds the per-client delivery attempt; a stalled
// subscriber drops events instead of blocking the broadcaster.
const sendTimeout = 100 * time.Millisecond

// Event is one user-visible notification or state-change signal.
// Toasts replace the original client's DOM toast box; refresh events
// tell the presentation layer to re-pull whatever it renders.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Message string    `json:"message,omitempty"`
	OK      bool      `json:"ok"`
	At      time.Time `json:"at"`
}

// Notifier is the component-facing surface: fire-and-forget user
// notifications.
type Notifier interface {
	Notify(message string, ok bool)
}

// Hub fans events out to websocket subscribers. Rendering subscribes to
// state changes instead of components reaching into the page.
type Hub struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// Register adds one subscriber connection and starts its writer. The
// hub owns the connection from here on and closes it when the
// subscriber stalls or the write fails.
func (h *Hub) Register(conn *websocket.Conn) {
	send := make(chan []byte, 16)

	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	go func() {
		defer h.Unregister(conn)
		for msg := range send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()
}

// Unregister drops a subscriber and closes its connection. Safe to call
// more than once.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	send, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
	}
	h.mu.Unlock()

	if ok {
		close(send)
		conn.Close()
	}
}

// Broadcast delivers an event to every subscriber, dropping it for
// clients that cannot keep up.
func (h *Hub) Broadcast(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, send := range h.clients {
		select {
		case send <- msg:
		case <-time.After(sendTimeout):
		}
	}
}

// Notify implements Notifier as a toast event. Every toast is also
// logged so headless runs keep a trace.
func (h *Hub) Notify(message string, ok bool) {
	if ok {
		h.log.Info("toast", zap.String("message", message))
	} else {
		h.log.Warn("toast", zap.String("message", message))
	}
	h.Broadcast(Event{Type: EventToast, Message: message, OK: ok})
}

// NotifyRefresh signals subscribers to re-fetch the product list.
func (h *Hub) NotifyRefresh() {
	h.Broadcast(Event{Type: EventRefresh, OK: true})
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
