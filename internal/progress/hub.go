package progress

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vidai/vidai/internal/models"
)

const writeTimeout = 10 * time.Second

// Hub fans progress events out to every connected websocket client.
// Subscribers are browsers watching a run; events are best-effort and
// a slow or dead client is dropped rather than blocking the pipeline.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	// writeMu serializes Publish calls; gorilla connections allow only
	// one concurrent writer.
	writeMu sync.Mutex

	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS policy is enforced by the router middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades an HTTP request to a websocket subscription.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Progress] Websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("[Progress] Client connected (%d total)", count)

	// Drain reads until the client goes away. Subscribers never send
	// meaningful data; this just detects the close.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("[Progress] Client disconnected (%d total)", count)
}

// Publish sends an event to every connected client. Clients that fail
// the write are dropped.
func (h *Hub) Publish(event models.ProgressEvent) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("[Progress] Dropping client after write error: %v", err)
			h.remove(conn)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
