// Package server binds each WebSocket connection to a Session that owns the
// claimed display name, the joined rooms, and inbound event dispatch.
package server

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"github.com/parley-chat/parley/internal/chat"
	"github.com/parley-chat/parley/internal/history"
)

// Session is the server-side state bound to one live client connection. It
// owns the connection's claimed name and the set of rooms it has joined. All
// handlers run on the connection's read pump, so one inbound event is fully
// processed before the next begins; shared state is guarded inside the chat
// package.
type Session struct {
	id      string
	name    string
	rooms   map[string]struct{}
	coord   *chat.Coordinator
	archive history.Archive
	out     emitter
}

func newSession(coord *chat.Coordinator, archive history.Archive, out emitter) *Session {
	return &Session{
		id:      uuid.NewString(),
		rooms:   make(map[string]struct{}),
		coord:   coord,
		archive: archive,
		out:     out,
	}
}

// Name returns the session's currently claimed display name.
func (s *Session) Name() string {
	return s.name
}

// connected claims a guest name for the new connection, sends it the initial
// snapshot, and announces the arrival to everyone else.
func (s *Session) connected() {
	s.name = s.coord.Names.GenerateGuestName()
	s.out.toSelf(EventInit, InitPayload{
		Name:  s.name,
		Users: s.coord.Names.ListActive(),
		Rooms: s.coord.Rooms.ListRoomNames(),
	})
	s.out.toOthers(EventUserJoin, NamePayload{Name: s.name})
	log.Printf("Session %s connected as %q", s.id, s.name)
}

// handleEvent dispatches one decoded envelope. Unknown events are rejected
// with an error emission; no inbound event is fatal to the connection.
func (s *Session) handleEvent(env Envelope) {
	switch env.Event {
	case EventSendMessage:
		s.handleSendMessage(env.Data)
	case EventChangeName:
		s.handleChangeName(env.Data)
	case EventRoomSearch:
		s.handleRoomSearch(env.Data)
	case EventRoomCreate:
		s.handleRoomCreate(env.Data)
	case EventJoinRoom:
		s.handleJoinRoom(env.Data)
	default:
		s.reject(env.Event, "unknown event")
	}
}

func (s *Session) reject(event, reason string) {
	s.out.toSelf(EventError, ErrorPayload{Event: event, Message: reason})
}

func (s *Session) handleSendMessage(raw json.RawMessage) {
	var p SendMessagePayload
	if err := decodePayload(raw, &p); err != nil {
		s.reject(EventSendMessage, err.Error())
		return
	}

	// Authorship is bound server-side to the claimed name; the
	// client-supplied user field is not trusted.
	msg := chat.Message{User: s.name, Text: p.Text, Room: p.Room}

	s.out.toRoom(p.Room, EventSendMessage, msg)

	if !s.coord.Rooms.AppendMessage(p.Room, msg) {
		log.Printf("Session %s (%q): message for absent room %q dropped", s.id, s.name, p.Room)
		return
	}
	if err := s.archive.Record(p.Room, msg.User, msg.Text); err != nil {
		log.Printf("Session %s (%q): archive write failed: %v", s.id, s.name, err)
	}
}

func (s *Session) handleChangeName(raw json.RawMessage) {
	var p ChangeNamePayload
	if err := decodePayload(raw, &p); err != nil {
		s.reject(EventChangeName, err.Error())
		return
	}

	if !s.coord.Names.Claim(p.Name) {
		s.out.toSelf(EventChangeNameResult, RenameResultPayload{Success: false, Name: s.name})
		return
	}

	oldName := s.name
	s.coord.Names.Free(oldName)
	s.name = p.Name
	for room := range s.rooms {
		s.coord.Rooms.RenameMember(room, oldName, p.Name)
	}

	s.out.toOthers(EventChangeName, RenamePayload{OldName: oldName, NewName: p.Name})
	s.out.toSelf(EventChangeNameResult, RenameResultPayload{Success: true, Name: p.Name})
	log.Printf("Session %s renamed %q -> %q", s.id, oldName, p.Name)
}

func (s *Session) handleRoomSearch(raw json.RawMessage) {
	var p RoomNamePayload
	if err := decodePayload(raw, &p); err != nil {
		s.reject(EventRoomSearch, err.Error())
		return
	}
	s.out.toSelf(EventRoomExists, RoomExistsPayload{Exists: s.coord.Rooms.Exists(p.RoomName)})
}

func (s *Session) handleRoomCreate(raw json.RawMessage) {
	var p RoomNamePayload
	if err := decodePayload(raw, &p); err != nil {
		s.reject(EventRoomCreate, err.Error())
		return
	}

	s.coord.Rooms.Join(p.RoomName, s.name)
	s.rooms[p.RoomName] = struct{}{}
	s.out.joinRoom(p.RoomName)

	s.out.toSelf(EventRoomExists, RoomExistsPayload{Exists: true})
	s.out.toOthers(EventRoomUpdate, RoomUpdatePayload{Rooms: s.coord.Rooms.ListRoomNames()})
}

// handleJoinRoom accepts a bare JSON string naming the room. Joining an
// unknown room creates it; the joiner always receives the room's current log,
// empty for a fresh room. Membership and the log snapshot are resolved in one
// store operation, so a concurrent last-member departure cannot strand the
// joiner in a deleted room.
func (s *Session) handleJoinRoom(raw json.RawMessage) {
	var roomName string
	if err := json.Unmarshal(raw, &roomName); err != nil || roomName == "" {
		s.reject(EventJoinRoom, "room name must be a non-empty string")
		return
	}

	messages, existed := s.coord.Rooms.Join(roomName, s.name)
	s.rooms[roomName] = struct{}{}
	s.out.joinRoom(roomName)

	s.out.toSelf(EventLoadMessages, messages)
	if existed {
		s.out.toRoomOthers(roomName, EventUserJoin, NamePayload{Name: s.name})
	}
}

// disconnected announces the departure and releases everything the session
// held: its claimed name and its membership in every joined room, deleting
// rooms it leaves empty. Called once, from the read pump's teardown.
func (s *Session) disconnected() {
	if s.name == "" {
		// The connection never completed registration.
		return
	}

	s.out.toOthers(EventUserLeft, NamePayload{Name: s.name})
	s.coord.Names.Free(s.name)
	for room := range s.rooms {
		s.coord.Rooms.RemoveMember(room, s.name)
		s.out.leaveRoom(room)
		delete(s.rooms, room)
	}
	log.Printf("Session %s (%q) disconnected", s.id, s.name)
}
