package client

import (
	"cryptochat/api"
	"cryptochat/domain"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// State is the client side view of the node: identity, rooms, messages and pending verifications.
// Rooms are replaced wholesale by each poll. Messages are only ever appended, in arrival order.
type State struct {
	mu            sync.RWMutex
	identity      domain.Identity
	rooms         api.Rooms
	messages      map[string][]domain.Message
	verifications []api.Verification
}

func NewState() *State {
	return &State{rooms: api.Rooms{}, messages: make(map[string][]domain.Message)}
}

func (s *State) SetIdentity(identity domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
}

func (s *State) Identity() domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// SetRooms replaces the room list, no diffing
func (s *State) SetRooms(rooms api.Rooms) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rooms == nil {
		rooms = api.Rooms{}
	}
	s.rooms = rooms
}

func (s *State) Rooms() api.Rooms {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make(api.Rooms, len(s.rooms))
	for name, room := range s.rooms {
		rooms[name] = room
	}
	return rooms
}

// RoomNames is sorted
func (s *State) RoomNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := lo.Keys(s.rooms)
	slices.Sort(names)
	return names
}

func (s *State) AppendMessage(message domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[message.Room] = append(s.messages[message.Room], message)
}

func (s *State) Messages(room string) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages[room])
}

// PushVerification queues a request behind the ones already waiting. A peer is queued once.
func (s *State) PushVerification(v api.Verification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lo.ContainsBy(s.verifications, func(q api.Verification) bool { return q.UUID == v.UUID }) {
		return
	}
	s.verifications = append(s.verifications, v)
}

// NextVerification is the oldest waiting request
func (s *State) NextVerification() (api.Verification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.verifications) == 0 {
		return api.Verification{}, false
	}
	return s.verifications[0], true
}

// DropVerification removes every queued request of a peer, once answered or resolved elsewhere
func (s *State) DropVerification(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifications = lo.Reject(s.verifications, func(v api.Verification, _ int) bool { return v.UUID == id })
}

func (s *State) PendingVerifications() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.verifications)
}
