package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/binsight/go-binsight/internal/log"
)

// Hub owns a set of websocket subscribers and broadcasts messages to
// all of them. The run loop is the only goroutine touching the client
// set; everything else goes through channels.
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[*client]struct{}
	broadcast  chan Message
	register   chan *client
	unregister chan *client
	done       chan struct{}

	// mu only guards the count read by ClientCount.
	mu    sync.RWMutex
	count int
}

// New creates a hub. Call Run before serving connections.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		logger:     log.Component("hub").With("channel", name),
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan Message, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run drives the broadcast loop until ctx is cancelled, then closes
// every remaining subscriber.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[*client]struct{})
			h.setCount(0)
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.setCount(len(h.clients))
			h.logger.Debug("subscriber connected", "total", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.setCount(len(h.clients))
			h.logger.Debug("subscriber disconnected", "remaining", len(h.clients))

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Subscriber cannot keep up; cut it loose rather
					// than stalling the loop.
					delete(h.clients, c)
					close(c.send)
					h.logger.Warn("dropped slow subscriber")
				}
			}
			h.setCount(len(h.clients))
		}
	}
}

// Serve registers the connection and blocks until it closes. Call from
// inside a websocket handler.
func (h *Hub) Serve(conn wsConn) {
	c := newClient(h, conn)
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	c.run()
}

// Broadcast queues a message for every subscriber. Drops the message
// when the queue is full.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast queue full, dropping message")
	}
}

// BroadcastJSON marshals v and broadcasts it as a text frame.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(Message{Type: JSONMessage, Data: data})
	return nil
}

// BroadcastBinary broadcasts raw bytes, typically a JPEG frame.
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(Message{Type: BinaryMessage, Data: data})
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}
