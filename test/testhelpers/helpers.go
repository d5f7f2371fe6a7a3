// Package testhelpers provides common utilities and helper functions for
// testing the Parley server.
//
// This package contains reusable test utilities shared across the integration
// tests: dialing WebSocket connections, sending event envelopes, and waiting
// for specific events among interleaved deliveries.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Envelope mirrors the server's wire frame so helpers stay decoupled from
// internal packages.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// CreateTestServer creates a test HTTP server with the given handler. The
// returned server should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// WebSocketURL converts a test server's base URL into its ws:// endpoint.
func WebSocketURL(t *testing.T, baseURL string) string {
	t.Helper()
	if !strings.HasPrefix(baseURL, "http") {
		t.Fatalf("unexpected test server URL: %s", baseURL)
	}
	return "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
}

// ConnectWebSocket dials the WebSocket endpoint with an Origin header that
// matches the test server, failing the test on error.
func ConnectWebSocket(t *testing.T, wsURL, origin string) *websocket.Conn {
	t.Helper()
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	headers.Set("Origin", origin)

	conn, resp, err := dialer.Dial(wsURL, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket at %s: %v", wsURL, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendEvent writes one event envelope to the connection.
func SendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal %s payload: %v", event, err)
	}
	if err := conn.WriteJSON(Envelope{Event: event, Data: raw}); err != nil {
		t.Fatalf("Failed to send %s: %v", event, err)
	}
}

// ReadEvent reads the next envelope from the connection within the timeout.
func ReadEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) Envelope {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}
	return env
}

// WaitForEvent reads envelopes until one matches the wanted event name,
// discarding interleaved events, and fails the test when the timeout passes
// first.
func WaitForEvent(t *testing.T, conn *websocket.Conn, event string, timeout time.Duration) Envelope {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.Fatalf("Timed out waiting for %s", event)
		}
		if err := conn.SetReadDeadline(time.Now().Add(remaining)); err != nil {
			t.Fatalf("Failed to set read deadline: %v", err)
		}
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("Failed while waiting for %s: %v", event, err)
		}
		if env.Event == event {
			return env
		}
	}
}

// DecodeData unmarshals an envelope's payload into dst.
func DecodeData(t *testing.T, env Envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("Failed to decode %s payload %s: %v", env.Event, env.Data, err)
	}
}

// ExpectNoEvent asserts that nothing arrives on the connection within the
// timeout.
func ExpectNoEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	var env Envelope
	err := conn.ReadJSON(&env)
	if err == nil {
		t.Fatalf("Expected no event, received %s", env.Event)
	}
	if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	t.Fatalf("Unexpected error while waiting for absence of events: %v", err)
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
