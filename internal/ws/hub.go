package ws

import (
	"encoding/json"
	"sync"

	"github.com/syncode/syncode/internal/logger"
)

// Hub is the broadcast fabric: it tracks connected clients and which room
// channels each one subscribes to, and fans events out per room. Events of
// the same name to the same room preserve publish order because each client
// has a single FIFO send channel.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Client
	rooms map[string]map[string]*Client // roomID -> connID -> client
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*Client),
		rooms: make(map[string]map[string]*Client),
	}
}

// Register tracks a new connection
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[c.ID] = c
	logger.Info("Client connected: %s (total: %d)", c.ID, len(h.conns))
}

// Unregister drops a connection and all its room subscriptions
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c.ID]; !ok {
		return
	}
	delete(h.conns, c.ID)
	for roomID, subs := range h.rooms {
		delete(subs, c.ID)
		if len(subs) == 0 {
			delete(h.rooms, roomID)
		}
	}
	logger.Info("Client disconnected: %s (total: %d)", c.ID, len(h.conns))
}

// Subscribe adds the client to a room channel
func (h *Hub) Subscribe(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.rooms[roomID]
	if !ok {
		subs = make(map[string]*Client)
		h.rooms[roomID] = subs
	}
	subs[c.ID] = c
}

// Unsubscribe removes the connection from a room channel
func (h *Hub) Unsubscribe(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(subs, connID)
	if len(subs) == 0 {
		delete(h.rooms, roomID)
	}
}

// Publish delivers the event to every subscriber of the room except the
// excluded originator. Pass an empty excludeConnID to reach everyone.
func (h *Hub) Publish(roomID, event string, payload interface{}, excludeConnID string) {
	data, err := encodeEnvelope(event, payload)
	if err != nil {
		logger.Error("Failed to encode %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID, c := range h.rooms[roomID] {
		if connID == excludeConnID {
			continue
		}
		c.enqueue(data)
	}
}

// PublishToAll delivers the event to every subscriber, originator included
func (h *Hub) PublishToAll(roomID, event string, payload interface{}) {
	h.Publish(roomID, event, payload, "")
}

// SendTo delivers the event to a single connection
func (h *Hub) SendTo(connID, event string, payload interface{}) bool {
	data, err := encodeEnvelope(event, payload)
	if err != nil {
		logger.Error("Failed to encode %s event: %v", event, err)
		return false
	}

	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()

	if !ok {
		return false
	}
	c.enqueue(data)
	return true
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func encodeEnvelope(event string, payload interface{}) ([]byte, error) {
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}
