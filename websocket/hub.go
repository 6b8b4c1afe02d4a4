package websocket

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types pushed to connected dashboards
const (
	EventTypeWithdrawalRequested = "withdrawal_requested"
	EventTypeWithdrawalProcessed = "withdrawal_processed"
	EventTypeOrderDelivered      = "order_delivered"
)

// Event represents a message sent over WebSocket
type Event struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	UserID  string      `json:"userId,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID primitive.ObjectID
	Role   string
	Conn   *websocket.Conn
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients    map[primitive.ObjectID]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[primitive.ObjectID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; ok {
				delete(h.clients, client.UserID)
			}
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// SendToUser sends an event to a specific user
func (h *Hub) SendToUser(userID primitive.ObjectID, event Event) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user not connected")
	}

	return client.Conn.WriteJSON(event)
}

// BroadcastToAdmins sends an event to every connected admin dashboard
func (h *Hub) BroadcastToAdmins(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.Role == "admin" {
			client.Conn.WriteJSON(event)
		}
	}
}

// NotifyWithdrawalRequested pushes a new withdrawal request to admin dashboards
func (h *Hub) NotifyWithdrawalRequested(withdrawal interface{}) {
	h.BroadcastToAdmins(Event{
		Type:    EventTypeWithdrawalRequested,
		Message: "New withdrawal request received",
		Data:    withdrawal,
	})
}

// NotifyWithdrawalProcessed tells the affiliate their request was decided
func (h *Hub) NotifyWithdrawalProcessed(affiliateID primitive.ObjectID, withdrawal interface{}) error {
	return h.SendToUser(affiliateID, Event{
		Type:    EventTypeWithdrawalProcessed,
		Message: "Your withdrawal request has been processed",
		Data:    withdrawal,
	})
}
