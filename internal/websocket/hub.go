package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// Event is one live board notification, fanned out to every subscriber of
// the project. Delivery is best-effort; clients reload authoritative state
// over the REST API anyway.
type Event struct {
	Type      string      `json:"type"`
	ProjectID string      `json:"projectId"`
	Data      interface{} `json:"data,omitempty"`
}

// Client is one subscribed board connection.
type Client struct {
	Conn      *websocket.Conn
	ProjectID string
	Mu        sync.Mutex
}

// Hub manages board subscriptions and event fan-out.
type Hub struct {
	Clients    map[*Client]bool
	Broadcast  chan Event
	Register   chan *Client
	Unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Broadcast:  make(chan Event, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Publish queues an event without blocking the request path. When the hub
// is saturated the event is dropped.
func (h *Hub) Publish(event Event) {
	select {
	case h.Broadcast <- event:
	default:
	}
}

// Run owns the client set. Register, unregister and broadcast all pass
// through here, so no lock around the map is needed.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Clients[client] = true
		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				client.Conn.Close()
			}
		case event := <-h.Broadcast:
			message, err := json.Marshal(event)
			if err != nil {
				continue
			}
			for client := range h.Clients {
				if client.ProjectID != event.ProjectID {
					continue
				}
				client.Mu.Lock()
				err := client.Conn.WriteMessage(websocket.TextMessage, message)
				client.Mu.Unlock()
				if err != nil {
					delete(h.Clients, client)
					client.Conn.Close()
				}
			}
		}
	}
}
