// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// NewWebSocketHandler returns the handler for WebSocket upgrade requests. It
// validates the method, upgrades the connection, and registers a new client
// with the hub; the hub launches the pump goroutines and runs the session's
// connect sequence.
func NewWebSocketHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(conn, hub, r.RemoteAddr)
		hub.register <- client
	}
}

// HealthHandler provides a simple health check endpoint that returns server
// status as plain text.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Parley server is running!")
}

// TestPageHandler serves a minimal HTML page speaking the event protocol:
// connect, rename, create or join a room, and exchange messages.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Parley Test Client</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; max-width: 640px; }
        #log {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
            font-family: monospace;
            font-size: 13px;
        }
        input[type="text"] { padding: 5px; margin-right: 6px; }
        button { padding: 5px 12px; cursor: pointer; }
    </style>
</head>
<body>
    <h1>Parley Test Client</h1>
    <div>
        <button onclick="connect()">Connect</button>
        <input type="text" id="name" placeholder="new name">
        <button onclick="rename()">Rename</button>
    </div>
    <div style="margin-top:8px">
        <input type="text" id="room" placeholder="room name">
        <button onclick="createRoom()">Create</button>
        <button onclick="joinRoom()">Join</button>
    </div>
    <div style="margin-top:8px">
        <input type="text" id="text" placeholder="message" size="40">
        <button onclick="sendMessage()">Send</button>
    </div>
    <div id="log"></div>

    <script>
        let ws = null;
        let myName = '';
        let currentRoom = '';
        const log = document.getElementById('log');

        function append(line) {
            const div = document.createElement('div');
            div.textContent = line;
            log.appendChild(div);
            log.scrollTop = log.scrollHeight;
        }

        function emit(event, data) {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({event: event, data: data}));
            }
        }

        function connect() {
            ws = new WebSocket('ws://' + location.host + '/ws');
            ws.onmessage = function(e) {
                const env = JSON.parse(e.data);
                if (env.event === 'init') {
                    myName = env.data.name;
                }
                if (env.event === 'change:name:result' && env.data.success) {
                    myName = env.data.name;
                }
                append(env.event + ' ' + JSON.stringify(env.data));
            };
            ws.onclose = function() { append('-- disconnected --'); };
        }

        function rename() {
            emit('change:name', {name: document.getElementById('name').value});
        }

        function createRoom() {
            currentRoom = document.getElementById('room').value;
            emit('room:create', {roomName: currentRoom});
        }

        function joinRoom() {
            currentRoom = document.getElementById('room').value;
            emit('join:room', currentRoom);
        }

        function sendMessage() {
            emit('send:message', {
                user: myName,
                text: document.getElementById('text').value,
                room: currentRoom
            });
            document.getElementById('text').value = '';
        }
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}
