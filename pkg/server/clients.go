package server

import (
	"sync"

	"github.com/google/uuid"
)

// Client tracks one open TCP or WebSocket connection and the room and
// player it is currently bound to.
type Client struct {
	ID       string
	RoomCode string
	PlayerID string
}

// ClientManager tracks every open connection. IDs are uuid-backed rather
// than a plain counter, since collision-free IDs matter more here than
// raw allocation throughput.
type ClientManager struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewClientManager constructs an empty ClientManager.
func NewClientManager() *ClientManager {
	return &ClientManager{clients: make(map[string]*Client)}
}

// Connect registers a new client bound to roomCode and returns it.
func (m *ClientManager) Connect(roomCode string) *Client {
	c := &Client{ID: uuid.NewString(), RoomCode: roomCode}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
	return c
}

// Bind records the player id a client identified itself as, once known.
func (m *ClientManager) Bind(clientID, playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[clientID]; ok {
		c.PlayerID = playerID
	}
}

// Disconnect removes a client and returns it, or (nil, false) if it was
// already gone.
func (m *ClientManager) Disconnect(clientID string) (*Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[clientID]
	if ok {
		delete(m.clients, clientID)
	}
	return c, ok
}

// InRoom returns every currently connected client bound to roomCode.
func (m *ClientManager) InRoom(roomCode string) []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Client
	for _, c := range m.clients {
		if c.RoomCode == roomCode {
			out = append(out, c)
		}
	}
	return out
}

// Count reports the number of currently tracked clients.
func (m *ClientManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
