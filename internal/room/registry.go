package room

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/synapse-live/relay-service/internal/domain"
	"github.com/synapse-live/relay-service/internal/protocol"
)

// DefaultBacklog is the per-subscriber backlog capacity used when the config
// does not override it.
const DefaultBacklog = 1000

// room is one collaborative session: the fan-out channel plus the current
// member set. Only the registry touches it, always under the registry lock.
type room struct {
	fan   *Fanout
	users map[string]domain.Participant
}

// Registry owns all live rooms. Rooms are created lazily on first join and
// removed in the same critical section as the last leave, so an empty room is
// never observable: a later join with the same ID gets a fresh room.
//
// All membership mutation happens under one write lock; the fan-out channels
// themselves are safe for concurrent publish/subscribe without it, and the
// lock is never held across socket I/O (Publish does not block).
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*room
	backlog int
}

func NewRegistry(backlog int) *Registry {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	return &Registry{
		rooms:   make(map[string]*room),
		backlog: backlog,
	}
}

// JoinRoom registers userID in roomID, creating the room if needed, and
// announces the join to the current members. It returns the room's publish
// handle and a fresh subscription.
//
// The UserJoined event is published before the joiner subscribes, so a
// participant never receives its own join announcement.
func (r *Registry) JoinRoom(roomID, userID string) (*Fanout, *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		rm = &room{
			fan:   newFanout(r.backlog),
			users: make(map[string]domain.Participant),
		}
		r.rooms[roomID] = rm
		slog.Info("room created", "room", roomID)
	}

	p := domain.NewParticipant(userID)
	rm.users[userID] = p

	rm.fan.Publish(protocol.ServerMessage{
		Type:    protocol.TypeUserJoined,
		Payload: protocol.UserJoinedPayload{User: p},
	})

	return rm.fan, rm.fan.Subscribe()
}

// LeaveRoom removes userID from roomID and announces the departure. The last
// leave deletes the room before the lock is released. Unknown room or
// participant is a no-op.
func (r *Registry) LeaveRoom(roomID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := rm.users[userID]; !ok {
		return
	}
	delete(rm.users, userID)

	rm.fan.Publish(protocol.ServerMessage{
		Type:    protocol.TypeUserLeft,
		Payload: protocol.UserLeftPayload{UserID: userID},
	})

	if len(rm.users) == 0 {
		delete(r.rooms, roomID)
		slog.Info("room removed", "room", roomID)
	}
}

// Rename updates the stored display name of a participant and returns the
// updated record, so the caller can broadcast it.
func (r *Registry) Rename(roomID, userID, name string) (domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return domain.Participant{}, domain.ErrRoomNotFound
	}
	p, ok := rm.users[userID]
	if !ok {
		return domain.Participant{}, domain.ErrNotInRoom
	}
	p.Name = name
	rm.users[userID] = p
	return p, nil
}

// RoomUsers returns a snapshot of the room's members, sorted by ID. A missing
// room yields an empty slice.
func (r *Registry) RoomUsers(roomID string) []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return []domain.Participant{}
	}
	users := make([]domain.Participant, 0, len(rm.users))
	for _, p := range rm.users {
		users = append(users, p)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// Stats reports the number of live rooms and participants across them.
func (r *Registry) Stats() (rooms, participants int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms = len(r.rooms)
	for _, rm := range r.rooms {
		participants += len(rm.users)
	}
	return rooms, participants
}
