package http

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"trivia-game-service/internal/domain"
)

// outboundMessage is the wire form for everything the server sends.
type outboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub tracks which connections belong to which room and fans messages out
// to all members of a room. It implements game.Broadcaster directly for
// single-instance deployments; with Redis configured, the relay publishes
// and its subscription loop calls Deliver here instead.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*client]struct{}),
	}
}

func (h *Hub) add(roomID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*client]struct{})
	}
	h.rooms[roomID][c] = struct{}{}
}

func (h *Hub) remove(roomID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[roomID], c)
	if len(h.rooms[roomID]) == 0 {
		delete(h.rooms, roomID)
	}
}

// Broadcast sends an event to all members of a room.
func (h *Hub) Broadcast(_ context.Context, roomID string, event domain.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: marshal %s event: %v", event.Name(), err)
		return
	}
	h.Deliver(roomID, event.Name(), payload)
}

// Deliver fans an already-encoded event out to a room's connections.
func (h *Hub) Deliver(roomID, eventType string, payload json.RawMessage) {
	raw, err := json.Marshal(outboundMessage{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("hub: marshal outbound: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		c.trySend(raw)
	}
}
