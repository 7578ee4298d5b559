package realtime

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Envelope is the wire format for pushed events.
type Envelope struct {
	Event     string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type event struct {
	userID  string
	message []byte
}

// Hub fans expense events out to the owner's connected clients. Each user has
// a room; clients only ever join their own. Implements core.EventPublisher.
type Hub struct {
	logger *zap.Logger

	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	events     chan event
	done       chan struct{}
}

// NewHub creates a hub. Call Run in a goroutine before serving connections.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan event, 256),
		done:       make(chan struct{}),
	}
}

// Run owns the room map; all mutation happens on this goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			room := h.rooms[client.userID]
			if room == nil {
				room = make(map[*Client]bool)
				h.rooms[client.userID] = room
			}
			room[client] = true
			h.logger.Debug("websocket client joined", zap.String("userID", client.userID))

		case client := <-h.unregister:
			if room, ok := h.rooms[client.userID]; ok && room[client] {
				delete(room, client)
				close(client.send)
				if len(room) == 0 {
					delete(h.rooms, client.userID)
				}
			}

		case ev := <-h.events:
			for client := range h.rooms[ev.userID] {
				select {
				case client.send <- ev.message:
				default:
					// Slow consumer, drop the connection rather than the hub.
					delete(h.rooms[ev.userID], client)
					close(client.send)
				}
			}

		case <-h.done:
			for userID, room := range h.rooms {
				for client := range room {
					close(client.send)
				}
				delete(h.rooms, userID)
			}
			return
		}
	}
}

// Shutdown stops the run loop and disconnects every client.
func (h *Hub) Shutdown() {
	close(h.done)
}

// enroll hands a new connection to the run loop. After Shutdown there is no
// receiver, so the send must not block.
func (h *Hub) enroll(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// drop hands a disconnecting client back to the run loop, same non-blocking
// contract as enroll.
func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues an event for the user's connected clients. Best-effort: the
// event is dropped when the hub is saturated or stopped.
func (h *Hub) Publish(userID, eventName string, payload any) {
	message, err := json.Marshal(Envelope{
		Event:     eventName,
		Data:      payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.logger.Warn("failed to marshal event", zap.String("event", eventName), zap.Error(err))
		return
	}

	select {
	case h.events <- event{userID: userID, message: message}:
	case <-h.done:
	default:
		h.logger.Warn("event queue full, dropping event",
			zap.String("event", eventName),
			zap.String("userID", userID))
	}
}
