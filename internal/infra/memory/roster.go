package memory

import (
	"context"
	"sync"

	"trivia-game-service/internal/domain"
)

// Roster tracks room membership, ready state, and connectivity. It backs
// the game.Roster collaborator contract and the transport's join/leave
// handling.
type Roster struct {
	mu      sync.RWMutex
	players map[string]*domain.Player      // by player id
	rooms   map[string]map[string]struct{} // room id -> player ids
}

func NewRoster() *Roster {
	return &Roster{
		players: make(map[string]*domain.Player),
		rooms:   make(map[string]map[string]struct{}),
	}
}

// Join registers a player in a room, or marks an existing one connected
// again. Rejoining under a different room moves the membership there.
func (r *Roster) Join(_ context.Context, roomID, playerID, username string) (domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.players[playerID]; ok {
		if p.RoomID != roomID {
			delete(r.rooms[p.RoomID], playerID)
			if len(r.rooms[p.RoomID]) == 0 {
				delete(r.rooms, p.RoomID)
			}
			r.addToRoom(roomID, playerID)
			p.RoomID = roomID
		}
		p.Connected = true
		p.Username = username
		return *p, nil
	}

	p := &domain.Player{
		ID:        playerID,
		RoomID:    roomID,
		Username:  username,
		Connected: true,
	}
	r.players[playerID] = p
	r.addToRoom(roomID, playerID)
	return *p, nil
}

func (r *Roster) addToRoom(roomID, playerID string) {
	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[string]struct{})
	}
	r.rooms[roomID][playerID] = struct{}{}
}

// Leave marks a player disconnected. Membership is kept so the final
// player count at game end includes everyone who played.
func (r *Roster) Leave(_ context.Context, playerID string) (domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	p.Connected = false
	return *p, nil
}

// SetReady flips a player's ready flag.
func (r *Roster) SetReady(_ context.Context, playerID string, ready bool) (domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	p.Ready = ready
	return *p, nil
}

// PlayerCount returns the number of roster members of a room.
func (r *Roster) PlayerCount(_ context.Context, roomID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID]), nil
}

// Username resolves a player's display name.
func (r *Roster) Username(_ context.Context, playerID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[playerID]
	if !ok {
		return "", domain.ErrPlayerNotFound
	}
	return p.Username, nil
}

// Players lists a room's members.
func (r *Roster) Players(_ context.Context, roomID string) ([]domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	out := make([]domain.Player, 0, len(members))
	for id := range members {
		out = append(out, *r.players[id])
	}
	return out, nil
}
