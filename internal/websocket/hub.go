package websocket

import (
	"encoding/json"
	"log"

	"lyceum/internal/realtime"
)

// Hub maintains the set of connected clients and routes events to them.
// One connection per user; a newer connection replaces the old one.
type Hub struct {
	clients map[uint]*Client

	register   chan *Client
	unregister chan *Client

	// Events aimed at a specific user.
	direct chan *realtime.Event
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uint]*Client),
		direct:     make(chan *realtime.Event, 256),
	}
}

// Deliver hands an event to the hub for delivery. The send is non-blocking
// so a full hub never stalls the Kafka consumer; delivery here is best
// effort, the durable copy lives in the database.
func (h *Hub) Deliver(event *realtime.Event) {
	select {
	case h.direct <- event:
	default:
		log.Printf("Warning: hub direct channel full, dropping event for user %d", event.RecipientID)
	}
}

// Run starts the hub loop.
func (h *Hub) Run() {
	log.Println("WebSocket hub started.")
	for {
		select {
		case client := <-h.register:
			if existing, ok := h.clients[client.UserID]; ok {
				log.Printf("User %d already connected, replacing old connection.", client.UserID)
				close(existing.send)
			}
			h.clients[client.UserID] = client
			log.Printf("Client registered: user %d", client.UserID)

		case client := <-h.unregister:
			if stored, ok := h.clients[client.UserID]; ok && stored == client {
				delete(h.clients, client.UserID)
				close(client.send)
				log.Printf("Client unregistered: user %d", client.UserID)
			}

		case event := <-h.direct:
			client, ok := h.clients[event.RecipientID]
			if !ok {
				// Recipient not connected to this instance.
				continue
			}
			payload, err := json.Marshal(event)
			if err != nil {
				log.Printf("Failed to marshal event for user %d: %v", event.RecipientID, err)
				continue
			}
			select {
			case client.send <- payload:
			default:
				log.Printf("Warning: send buffer full for user %d, removing client.", event.RecipientID)
				close(client.send)
				delete(h.clients, event.RecipientID)
			}
		}
	}
}
