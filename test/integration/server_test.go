package integration

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parley-chat/parley/internal/chat"
	"github.com/parley-chat/parley/internal/server"
	"github.com/parley-chat/parley/test/testhelpers"
)

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/")
	if err != nil {
		t.Fatalf("Failed to reach health endpoint: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if string(body) != "Parley server is running!" {
		t.Errorf("Unexpected health body: %q", body)
	}
}

func TestTestPageServed(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/test")
	if err != nil {
		t.Fatalf("Failed to reach test page: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html" {
		t.Errorf("Expected text/html, got %q", ct)
	}
}

func TestWebSocketRejectsNonGetRequests(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/ws", "application/json", http.NoBody)
	if err != nil {
		t.Fatalf("Failed to POST to /ws: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", resp.StatusCode)
	}
}

func TestWebSocketRejectsDisallowedOrigin(t *testing.T) {
	env := newTestEnv(t)

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	headers.Set("Origin", "http://evil.example.com")

	conn, resp, err := dialer.Dial(env.wsURL, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err == nil {
		_ = conn.Close()
		t.Fatal("Expected upgrade to fail for a disallowed origin")
	}
}

func TestGracefulShutdownWithActiveConnection(t *testing.T) {
	coordinator := chat.NewCoordinator("")
	hub := server.NewHub(coordinator, nil)
	server.StartHub(hub)

	mux := server.SetupRoutes(hub)
	testServer := testhelpers.CreateTestServer(mux)
	defer testServer.Close()

	cfg := server.NewConfig()
	cfg.AllowedOrigins = append([]string{testServer.URL}, cfg.AllowedOrigins...)
	server.SetConfig(cfg)
	defer server.SetConfig(nil)

	conn := testhelpers.ConnectWebSocket(t, testhelpers.WebSocketURL(t, testServer.URL), testServer.URL)
	testhelpers.WaitForEvent(t, conn, "init", eventTimeout)

	done := make(chan error, 1)
	go func() {
		done <- hub.Shutdown(5 * time.Second)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Hub shutdown returned error: %v", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("Hub shutdown did not complete")
	}
}
