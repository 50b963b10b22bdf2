package network

import (
	"context"
	"sync"

	"github.com/MRamiBalles/ComfortBath/server/internal/platform/logger"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/metrics"
)

// Hub maintains the set of active bath sessions.
// Sessions never talk to each other; the hub only tracks them for capacity and shutdown.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	logger     *logger.Logger
	metrics    *metrics.Collector

	maxClients int
	slots      int // reserved by Admit, released on unregister
	done       chan struct{}
}

// NewHub initializes a new Hub. maxClients <= 0 means unlimited.
func NewHub(log *logger.Logger, m *metrics.Collector, maxClients int) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     log,
		metrics:    m,
		maxClients: maxClients,
		done:       make(chan struct{}),
	}
}

// Admit reserves a session slot. It returns false when the hub is full
// or already shut down.
func (h *Hub) Admit() bool {
	select {
	case <-h.done:
		return false
	default:
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maxClients > 0 && h.slots >= h.maxClients {
		return false
	}
	h.slots++
	return true
}

// Release gives back a slot reserved by Admit that never became a session.
func (h *Hub) Release() {
	h.mu.Lock()
	if h.slots > 0 {
		h.slots--
	}
	h.mu.Unlock()
}

// Count returns the number of registered sessions.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Done is closed once the hub has shut down.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run starts the Hub's main loop. On shutdown every session is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down", "sessions", h.Count())
			h.mu.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
				h.metrics.RecordWSConnection(-1)
			}
			h.slots = 0
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Info("session connected", "sessions", h.Count())
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if h.slots > 0 {
					h.slots--
				}
				h.metrics.RecordWSConnection(-1)
			}
			h.mu.Unlock()
			h.logger.Info("session disconnected", "sessions", h.Count())
		}
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
