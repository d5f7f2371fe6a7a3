// Package server coordinates client registration, addressed broadcast, and
// connection cleanup for the Parley WebSocket service via the Hub type.
package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/parley-chat/parley/internal/chat"
	"github.com/parley-chat/parley/internal/history"
)

// Hub manages the WebSocket connection set and the transport-level room
// scopes used for addressed delivery. The state shared by every session, the
// chat coordinator and the history archive, hangs off the hub and is reached
// by reference from each connection's handlers; nothing in this package is
// process-global.
type Hub struct {
	coordinator *chat.Coordinator
	archive     history.Archive

	clients    map[*Client]bool
	scopes     map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a hub bound to the given coordinator and archive. A nil
// archive means history recording is disabled.
func NewHub(coordinator *chat.Coordinator, archive history.Archive) *Hub {
	if archive == nil {
		archive = history.Noop{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		coordinator: coordinator,
		archive:     archive,
		clients:     make(map[*Client]bool),
		scopes:      make(map[string]map[*Client]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Run starts the hub's main event loop, handling client registration and
// unregistration until Shutdown. This method should be called in a separate
// goroutine as it runs indefinitely.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Printf("Received nil client registration; skipping")
				continue
			}

			h.mutex.Lock()
			client.closed = false
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Client registered from %s. Total clients: %d", client.addr, clientCount)

			// The session claims its guest name and emits init/user:join
			// before the pumps start: the self-addressed init queues in the
			// send buffer, and no inbound event can touch the session until
			// the connect sequence is done.
			client.session.connected()

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for room := range h.scopes {
					h.leaveScopeLocked(room, client)
				}
				client.closed = true
				clientCount := len(h.clients)
				h.mutex.Unlock()
				// Close the channel after releasing the lock.
				close(client.send)
				log.Printf("Client unregistered from %s. Total clients: %d", client.addr, clientCount)
			} else {
				h.mutex.Unlock()
			}
		}
	}
}

// joinScope subscribes the client to the addressed-broadcast scope of room.
func (h *Hub) joinScope(room string, client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	set, ok := h.scopes[room]
	if !ok {
		set = make(map[*Client]struct{})
		h.scopes[room] = set
	}
	set[client] = struct{}{}
}

// leaveScope unsubscribes the client from the scope of room, dropping the
// scope entirely when it empties.
func (h *Hub) leaveScope(room string, client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.leaveScopeLocked(room, client)
}

func (h *Hub) leaveScopeLocked(room string, client *Client) {
	if set, ok := h.scopes[room]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.scopes, room)
		}
	}
}

// Deliver routes one addressed emission to its audience. Delivery to each
// recipient is independent and best-effort: a recipient whose send buffer is
// full is dropped from the hub without affecting the other recipients.
func (h *Hub) Deliver(msg BroadcastMessage) {
	recipients := h.audienceSnapshot(msg)

	var clientsToRemove []*Client
	for _, client := range recipients {
		if !h.safeSend(client, msg.Payload) {
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	h.removeFailedClients(clientsToRemove)
}

// audienceSnapshot resolves the message's scope to a concrete recipient list
// under the read lock.
func (h *Hub) audienceSnapshot(msg BroadcastMessage) []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	switch msg.Scope {
	case ScopeSelf:
		if msg.Sender == nil {
			return nil
		}
		return []*Client{msg.Sender}

	case ScopeRoom, ScopeRoomOthers:
		set := h.scopes[msg.Room]
		recipients := make([]*Client, 0, len(set))
		for client := range set {
			if msg.Scope == ScopeRoomOthers && client == msg.Sender {
				continue
			}
			recipients = append(recipients, client)
		}
		return recipients

	default: // ScopeOthers
		recipients := make([]*Client, 0, len(h.clients))
		for client := range h.clients {
			if client == msg.Sender {
				continue
			}
			recipients = append(recipients, client)
		}
		return recipients
	}
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in safeSend: %v", r)
		}
	}()

	// Hold the lock during the entire send operation so the send channel
	// cannot be closed out from under us.
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// removeFailedClients removes clients that failed to receive messages and
// closes their channels.
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range clientsToRemove {
		if _, exists := h.clients[client]; exists {
			delete(h.clients, client)
			for room := range h.scopes {
				h.leaveScopeLocked(room, client)
			}
			client.closed = true
			channelsToClose = append(channelsToClose, client.send)
			log.Printf("Client from %s removed due to full send buffer", client.addr)
		}
	}
	h.mutex.Unlock()

	// Close channels after releasing the lock.
	for _, ch := range channelsToClose {
		close(ch)
	}
}

// shutdownClients gracefully closes all active client connections.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error closing client connection from %s: %v", client.addr, err)
				}
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all client
// goroutines to complete, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
