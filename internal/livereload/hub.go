package livereload

import (
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/themebuilder/internal/logfields"
	"git.home.luguber.info/inful/themebuilder/internal/metrics"
)

// clientBuffer is how many reloads a client may lag behind before it is dropped.
const clientBuffer = 16

// Hub fans reload notifications out to connected clients of every transport.
type Hub struct {
	mu       sync.RWMutex
	nextID   int
	clients  map[int]*client
	recorder metrics.Recorder
	closed   bool
}

type client struct {
	id   int
	kind string
	ch   chan string
	done chan struct{}
}

func NewHub(rec metrics.Recorder) *Hub {
	return &Hub{clients: map[int]*client{}, recorder: metrics.OrNoop(rec)}
}

// register adds a client, or returns nil once the hub is shut down.
func (h *Hub) register(kind string) *client {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	c := &client{id: h.nextID, kind: kind, ch: make(chan string, clientBuffer), done: make(chan struct{})}
	h.nextID++
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.recorder.SetLiveReloadClients(n)
	slog.Debug("Live-reload client connected", slog.String("transport", kind), logfields.Clients(n))
	return c
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, id)
	close(c.done)
	n := len(h.clients)
	h.mu.Unlock()

	h.recorder.SetLiveReloadClients(n)
	slog.Debug("Live-reload client disconnected", slog.String("transport", c.kind), logfields.Clients(n))
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues a reload of path for every client. Every call is
// delivered; repeated paths are not collapsed. Clients whose buffers are
// full are dropped.
func (h *Hub) Broadcast(path string) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	snapshot := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- path:
		default:
			dropped++
			h.remove(c.id)
		}
	}
	h.recorder.IncReloadNotification()
	slog.Debug("Live-reload broadcast", logfields.Path(path),
		logfields.Clients(len(snapshot)-dropped), slog.Int("dropped", dropped))
}

// Shutdown disconnects all clients and ignores later broadcasts.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*client{}
	h.mu.Unlock()

	for _, c := range clients {
		close(c.done)
	}
	h.recorder.SetLiveReloadClients(0)
}
