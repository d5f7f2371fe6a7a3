// Package server defines the JSON event protocol spoken over each WebSocket
// connection, covering the envelope framing, payload shapes, and validation.
package server

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Inbound event names accepted from clients.
const (
	EventSendMessage = "send:message"
	EventChangeName  = "change:name"
	EventRoomSearch  = "room:search"
	EventRoomCreate  = "room:create"
	EventJoinRoom    = "join:room"
)

// Outbound event names emitted to clients. EventChangeName is reused on the
// outbound side to announce a completed rename to everyone else.
const (
	EventInit             = "init"
	EventUserJoin         = "user:join"
	EventUserLeft         = "user:left"
	EventChangeNameResult = "change:name:result"
	EventRoomExists       = "room:exists"
	EventLoadMessages     = "load:messages"
	EventRoomUpdate       = "room:update"
	EventError            = "error"
)

// Envelope is the wire frame: one JSON object per WebSocket text message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendMessagePayload carries a chat message from the client. The user field
// is part of the wire record but the server binds authorship to the session's
// claimed name regardless.
type SendMessagePayload struct {
	User string `json:"user" validate:"required"`
	Text string `json:"text" validate:"required"`
	Room string `json:"room" validate:"required"`
}

// ChangeNamePayload requests a rename to Name.
type ChangeNamePayload struct {
	Name string `json:"name" validate:"required"`
}

// RoomNamePayload addresses a room by name; used by room:search and
// room:create.
type RoomNamePayload struct {
	RoomName string `json:"roomName" validate:"required"`
}

// InitPayload is the first event a connection receives: its assigned guest
// name plus a snapshot of active users and rooms.
type InitPayload struct {
	Name  string   `json:"name"`
	Users []string `json:"users"`
	Rooms []string `json:"rooms"`
}

// NamePayload carries a single display name (user:join, user:left).
type NamePayload struct {
	Name string `json:"name"`
}

// RenamePayload announces a completed rename to other connections.
type RenamePayload struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

// RenameResultPayload acknowledges a change:name request to its sender. Name
// is the session's name after arbitration, changed or not.
type RenameResultPayload struct {
	Success bool   `json:"success"`
	Name    string `json:"name"`
}

// RoomExistsPayload answers room:search and acknowledges room:create.
type RoomExistsPayload struct {
	Exists bool `json:"exists"`
}

// RoomUpdatePayload broadcasts the current room-name list.
type RoomUpdatePayload struct {
	Rooms []string `json:"rooms"`
}

// ErrorPayload reports a rejected inbound event to its sender.
type ErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodePayload unmarshals raw into dst and applies the struct's validation
// tags. The returned error message is safe to echo back to the client.
func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// encodeEvent marshals data into an envelope frame ready to send.
func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
