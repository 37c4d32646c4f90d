package connection

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Client represents a connected socket
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	mu       sync.RWMutex
	roomID   string
	playerID string
}

// NewClient creates a client with a buffered outbound queue
func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, 256),
	}
}

// Session returns the room and seat the client is attached to, if any.
func (c *Client) Session() (roomID string, playerID string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID, c.playerID
}

// Attach binds the client to a seat; it then receives that room's snapshots.
func (c *Client) Attach(roomID string, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
	c.playerID = playerID
}

// Detach forgets the client's room
func (c *Client) Detach() {
	c.Attach("", "")
}

// Manager handles all client connections
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
	logger     *slog.Logger
	done       chan struct{}
}

// NewManager creates a new connection manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start processes registrations until ctx is done, then closes every client queue.
func (m *Manager) Start(ctx context.Context) {
	for {
		select {
		case client := <-m.Register:
			m.mutex.Lock()
			m.clients[client.ID] = client
			m.mutex.Unlock()
			m.logger.Debug("client registered", slog.String("client", client.ID))

		case client := <-m.Unregister:
			m.mutex.Lock()
			if _, ok := m.clients[client.ID]; ok {
				delete(m.clients, client.ID)
				close(client.Send)
			}
			m.mutex.Unlock()
			m.logger.Debug("client unregistered", slog.String("client", client.ID))

		case <-ctx.Done():
			close(m.done)
			m.mutex.Lock()
			for id, client := range m.clients {
				delete(m.clients, id)
				close(client.Send)
			}
			m.mutex.Unlock()
			return
		}
	}
}

// Add registers client. It reports false once the manager has stopped.
func (m *Manager) Add(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

// Remove unregisters client; it does nothing once the manager has stopped.
func (m *Manager) Remove(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

// Count returns the number of registered clients
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// SendToClient queues a message for one client. It reports false when the client
// is gone or its queue is full.
func (m *Manager) SendToClient(client *Client, message []byte) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if _, ok := m.clients[client.ID]; !ok {
		return false
	}
	return m.enqueue(client, message)
}

// SendToRoom queues a message for every client attached to roomID.
// build is called once per client with the client's player id, so each one
// can receive its own view.
func (m *Manager) SendToRoom(roomID string, build func(playerID string) ([]byte, error)) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	sent := 0
	for _, client := range m.clients {
		clientRoom, playerID := client.Session()
		if clientRoom != roomID {
			continue
		}

		message, err := build(playerID)
		if err != nil {
			m.logger.Error("failed to build room message", slog.String("room", roomID), slog.Any("error", err))
			continue
		}
		if m.enqueue(client, message) {
			sent++
		}
	}
	return sent
}

// enqueue must be called with the mutex held
func (m *Manager) enqueue(client *Client, message []byte) bool {
	select {
	case client.Send <- message:
		return true
	default:
		m.logger.Warn("client queue full, dropping message", slog.String("client", client.ID))
		return false
	}
}
