package chat

import (
	"sync"

	"github.com/samber/lo"
)

// Message is one chat entry as it travels on the wire and sits in a room's
// log. Messages are immutable once appended; there is no edit or delete.
type Message struct {
	User string `json:"user"`
	Text string `json:"text"`
	Room string `json:"room"`
}

type room struct {
	members  map[string]struct{}
	messages []Message
}

// RoomStore tracks named rooms, their member names, and their ordered message
// logs. Rooms are ephemeral: they come into existence when their first member
// joins and are deleted, log included, when their last member leaves. A room
// therefore always has at least one member.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// NewRoomStore creates an empty store.
func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*room)}
}

// Join resolves a member entering a room as one atomic step: the room is
// created if absent, name is added to its member set, and the current log is
// snapshotted, all under a single lock so a concurrent departure cannot
// interleave between the steps. existed reports whether the room predated
// the call. The snapshot is never nil and duplicate member entries are never
// recorded.
func (s *RoomStore) Join(roomName, name string) (messages []Message, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomName]
	if !ok {
		r = &room{members: make(map[string]struct{})}
		s.rooms[roomName] = r
	}
	r.members[name] = struct{}{}
	messages = make([]Message, len(r.messages))
	copy(messages, r.messages)
	return messages, ok
}

// Exists reports whether roomName is currently in the store.
func (s *RoomStore) Exists(roomName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[roomName]
	return ok
}

// RemoveMember drops name from the room's member set. When the set empties
// the room is deleted entirely and its message log is discarded.
func (s *RoomStore) RemoveMember(roomName, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomName]
	if !ok {
		return
	}
	delete(r.members, name)
	if len(r.members) == 0 {
		delete(s.rooms, roomName)
	}
}

// RenameMember replaces oldName with newName in the room's member set, so a
// rename cannot strand a stale entry that would keep an abandoned room alive.
// No-op when the room is absent or oldName is not a member.
func (s *RoomStore) RenameMember(roomName, oldName, newName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomName]
	if !ok {
		return
	}
	if _, member := r.members[oldName]; !member {
		return
	}
	delete(r.members, oldName)
	r.members[newName] = struct{}{}
}

// AppendMessage appends msg to the room's log and reports whether the room
// existed. A false return means the message was dropped.
func (s *RoomStore) AppendMessage(roomName string, msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomName]
	if !ok {
		return false
	}
	r.messages = append(r.messages, msg)
	return true
}

// Messages returns a copy of the room's log in insertion order. The second
// return is false when the room is absent. The slice is never nil for an
// existing room, so it serializes as an empty JSON array rather than null.
func (s *RoomStore) Messages(roomName string) ([]Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomName]
	if !ok {
		return nil, false
	}
	messages := make([]Message, len(r.messages))
	copy(messages, r.messages)
	return messages, true
}

// Members returns an unordered snapshot of the room's member names, nil when
// the room is absent.
func (s *RoomStore) Members(roomName string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomName]
	if !ok {
		return nil
	}
	return lo.Keys(r.members)
}

// ListRoomNames returns an unordered snapshot of the current room names.
func (s *RoomStore) ListRoomNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Keys(s.rooms)
}
