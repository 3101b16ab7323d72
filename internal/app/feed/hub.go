/*
Package feed pushes newly stored chat messages to connected participants over WebSocket.

The Hub is the single owner of the connection set. Every message handed to Publish is
delivered to each connection whose participant may see it, using the same visibility rule
as message listing. Delivery is best effort: a full queue drops the message for a slow
connection and disconnects it.
*/
package feed

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"roomchat/internal/app/store"
	"roomchat/internal/pkg/logx"
)

const broadcastChannelBuffer = 1024

// EventMessage is the kind of event carrying a stored message.
const EventMessage = "message"

// Event is the frame written to clients.
type Event struct {
	Kind string        `json:"kind"`
	Data store.Message `json:"data"`
}

// Hub fans stored messages out to connected clients.
type Hub struct {
	// a map of connected clients, keyed by participant name.
	clients map[string]*Client

	// mirrors len(clients) for readers outside the Run loop.
	connections atomic.Int64

	// a buffered channel of messages waiting to be delivered.
	broadcast chan store.Message

	// a channel for clients requesting to join the feed.
	register chan *Client

	// a channel for clients requesting to leave the feed.
	unregister chan *Client

	// a channel of participant names whose connection must be closed.
	disconnect chan string

	// closed to stop the Run loop.
	stopChan chan struct{}
	stopOnce sync.Once

	// closed once the Run loop has returned.
	done chan struct{}

	logger zerolog.Logger
}

// NewHub creates a Hub. Run must be started before clients register.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan store.Message, broadcastChannelBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		disconnect: make(chan string),
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logx.Component("feed"),
	}
}

// Publish queues msg for delivery. It never blocks; when the queue is full the message
// is dropped from the feed (it remains stored).
func (h *Hub) Publish(msg store.Message) {
	select {
	case <-h.stopChan:
		return
	default:
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn().Str("message_id", msg.ID).Msg("Broadcast channel full. Message not pushed to the feed.")
	}
}

// Register adds a client. It returns false when the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopChan:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopChan:
	}
}

// Disconnect closes the connection of the named participant, if any. It is a no-op
// once the hub has stopped.
func (h *Hub) Disconnect(name string) {
	select {
	case h.disconnect <- name:
	case <-h.stopChan:
	}
}

// Connections returns the number of registered clients.
func (h *Hub) Connections() int {
	return int(h.connections.Load())
}

// Stop terminates the Run loop and closes every client queue. It waits for Run to return.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
	<-h.done
}

// Run is the hub event loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.done)
	defer func() {
		for name, client := range h.clients {
			close(client.send)
			delete(h.clients, name)
		}
		h.connections.Store(0)
		h.logger.Info().Msg("Feed hub stopped.")
	}()

	for {
		select {
		case client := <-h.register:
			if existing, ok := h.clients[client.name]; ok {
				h.logger.Warn().
					Str("participant", client.name).
					Msg("Participant already connected. Closing old connection for replacement.")
				close(existing.send)
			}
			h.clients[client.name] = client
			h.connections.Store(int64(len(h.clients)))
			h.logger.Info().
				Str("participant", client.name).
				Int("connections", len(h.clients)).
				Msg("Client joined feed.")

		case client := <-h.unregister:
			if current, ok := h.clients[client.name]; ok && current == client {
				delete(h.clients, client.name)
				h.connections.Store(int64(len(h.clients)))
				close(client.send)
				h.logger.Info().
					Str("participant", client.name).
					Int("connections", len(h.clients)).
					Msg("Client left feed.")
			}

		case name := <-h.disconnect:
			if client, ok := h.clients[name]; ok {
				delete(h.clients, name)
				h.connections.Store(int64(len(h.clients)))
				close(client.send)
				h.logger.Info().
					Str("participant", name).
					Int("connections", len(h.clients)).
					Msg("Participant left the room. Feed connection closed.")
			}

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.stopChan:
			return
		}
	}
}

func (h *Hub) deliver(msg store.Message) {
	frame, err := json.Marshal(Event{Kind: EventMessage, Data: msg})
	if err != nil {
		h.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Error marshaling message for feed.")
		return
	}

	for name, client := range h.clients {
		if !msg.VisibleTo(name) {
			continue
		}
		select {
		case client.send <- frame:
		default:
			h.logger.Warn().Str("participant", name).Msg("Client send queue full, disconnecting.")
			delete(h.clients, name)
			h.connections.Store(int64(len(h.clients)))
			close(client.send)
		}
	}
}
