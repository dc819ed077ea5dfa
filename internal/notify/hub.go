package notify

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rentflow-backend/internal/metrics"
)

// ToastType picks the toast colour in the portal
type ToastType string

const (
	ToastSuccess ToastType = "success"
	ToastError   ToastType = "error"
	ToastInfo    ToastType = "info"
)

// Toast is a short message pushed to a user's open portal tabs
type Toast struct {
	Type      ToastType `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier delivers toasts to a user
type Notifier interface {
	Notify(userID string, toast Toast)
}

type delivery struct {
	userID string
	toast  Toast
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// Hub fans toasts out to websocket connections, grouped by user
type Hub struct {
	clients    map[string]map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan delivery
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]map[*websocket.Conn]bool),
		broadcast: make(chan delivery, 256),
	}
}

// Notify queues a toast. It never blocks; when the queue is full the toast is
// logged and dropped.
func (h *Hub) Notify(userID string, toast Toast) {
	if toast.Timestamp.IsZero() {
		toast.Timestamp = time.Now()
	}
	log.Printf("[Notify] %s -> user %s: %s %s", toast.Type, userID, toast.Title, toast.Message)

	select {
	case h.broadcast <- delivery{userID: userID, toast: toast}:
	default:
		log.Printf("[Notify] queue full, dropping toast for user %s", userID)
	}
}

// Run delivers queued toasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

func (h *Hub) deliver(d delivery) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	for conn := range h.clients[d.userID] {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(d.toast); err != nil {
			conn.Close()
			h.removeLocked(d.userID, conn)
		}
	}
}

// ServeUser upgrades the request and keeps the connection registered for
// userID until the client goes away
func (h *Hub) ServeUser(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[Notify] WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	h.clientsMux.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*websocket.Conn]bool)
	}
	h.clients[userID][conn] = true
	metrics.NotificationClients.Inc()
	h.clientsMux.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.clientsMux.Lock()
			h.removeLocked(userID, conn)
			h.clientsMux.Unlock()
			return
		}
	}
}

// ClientCount returns the number of open connections for a user
func (h *Hub) ClientCount(userID string) int {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	return len(h.clients[userID])
}

func (h *Hub) removeLocked(userID string, conn *websocket.Conn) {
	conns := h.clients[userID]
	if !conns[conn] {
		return
	}
	delete(conns, conn)
	metrics.NotificationClients.Dec()
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) closeAll() {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	for userID, conns := range h.clients {
		for conn := range conns {
			conn.Close()
			h.removeLocked(userID, conn)
		}
	}
}
