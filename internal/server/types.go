// Package server defines the addressed-broadcast types shared between the hub
// and the per-connection sessions.
package server

import "strings"

// Scope selects the audience of one addressed emission.
type Scope int

const (
	// ScopeSelf delivers to the originating connection only.
	ScopeSelf Scope = iota
	// ScopeOthers delivers to every connection except the originator.
	ScopeOthers
	// ScopeRoom delivers to every connection subscribed to Room, the
	// originator included.
	ScopeRoom
	// ScopeRoomOthers delivers to the connections subscribed to Room,
	// excluding the originator.
	ScopeRoomOthers
)

// BroadcastMessage is one addressed emission routed by the hub. Sender
// identifies the originating connection for the scopes that exclude it.
type BroadcastMessage struct {
	Sender  *Client
	Scope   Scope
	Room    string
	Payload []byte
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
