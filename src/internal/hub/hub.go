// Package hub manages live WebSocket connections and implements the fan-out
// primitives the presence protocol needs: all clients, and all clients
// except the sender. Delivery is fire-and-forget; a client whose send buffer
// is full is dropped rather than allowed to stall the relay.
package hub

import (
	"context"
	"sync"
	"time"

	"geopulse-relay-svc/src/internal/config"

	"github.com/sirupsen/logrus"
)

// EventHandler receives inbound frames and disconnect notifications from
// the hub's connections. Wired after construction because the protocol
// service needs the hub for broadcasting.
type EventHandler interface {
	HandleMessage(socketID string, payload []byte)
	HandleDisconnect(socketID string)
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	handler EventHandler
	cfg     *config.SocketSettings
	wg      sync.WaitGroup
	closed  bool
}

func New(cfg *config.SocketSettings) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		cfg:     cfg,
	}
}

// SetHandler wires the protocol handler. Must be called before Register.
func (h *Hub) SetHandler(handler EventHandler) {
	h.handler = handler
}

// Register adds a client and starts its read and write pumps.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		client.close()
		return
	}
	h.clients[client.ID] = client
	count := len(h.clients)
	h.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"socket_id": client.ID,
		"addr":      client.addr,
		"clients":   count,
	}).Info("Client connected")

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// unregister removes a client and tells the protocol layer the connection is
// gone. Safe to call more than once per client.
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.ID]
	if ok {
		delete(h.clients, client.ID)
		client.closed = true
	}
	count := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	close(client.send)

	logrus.WithFields(logrus.Fields{
		"socket_id": client.ID,
		"clients":   count,
	}).Info("Client disconnected")

	if h.handler != nil {
		h.handler.HandleDisconnect(client.ID)
	}
}

// BroadcastAll delivers one payload to every connected client, including
// the sender of whatever triggered it.
func (h *Hub) BroadcastAll(payload []byte) {
	h.deliver(payload, "")
}

// BroadcastExcept delivers one payload to every connected client except the
// one identified by socketID.
func (h *Hub) BroadcastExcept(socketID string, payload []byte) {
	h.deliver(payload, socketID)
}

func (h *Hub) deliver(payload []byte, skipID string) {
	clients := h.snapshot()

	var failed []*Client
	for _, client := range clients {
		if skipID != "" && client.ID == skipID {
			continue
		}
		if !h.safeSend(client, payload) {
			failed = append(failed, client)
		}
	}

	for _, client := range failed {
		logrus.WithField("socket_id", client.ID).Warn("Dropping client with full send buffer")
		client.conn.Close()
	}
}

func (h *Hub) safeSend(client *Client, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[client.ID]; !ok || client.closed {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every connection and waits for pump goroutines to exit,
// or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		client.close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logrus.Info("Hub shutdown completed")
		return nil
	case <-time.After(timeout):
		logrus.Warn("Hub shutdown timeout reached")
		return context.DeadlineExceeded
	}
}
