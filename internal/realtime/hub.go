package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Room names. One hub connection per session; pages subscribe to topics
// instead of opening their own sockets.
func DashboardRoom(userID uuid.UUID) string { return "dashboard:" + userID.String() }
func ProjectRoom(projectID uuid.UUID) string {
	return "project:" + projectID.String()
}
func ChatRoom(conversationID uuid.UUID) string { return "chat:" + conversationID.String() }
func userRoom(userID uuid.UUID) string         { return "user:" + userID.String() }

// Event is the wire frame pushed to subscribers.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type Client struct {
	ID     string
	UserID uuid.UUID
	Send   chan []byte

	rooms map[string]bool
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

func NewClient(userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Send:   make(chan []byte, 256),
		rooms:  make(map[string]bool),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	// every connection implicitly listens on its personal room
	h.Join(client, userRoom(client.UserID))
	log.Printf("ws client registered: %s (user %s)", client.ID, client.UserID)
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	old, ok := h.clients[client.ID]
	if !ok {
		return
	}
	for room := range old.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, old.ID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	delete(h.clients, old.ID)
	close(old.Send)
	log.Printf("ws client unregistered: %s", client.ID)
}

func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][client.ID] = client
	client.rooms[room] = true
}

func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(client.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Publish sends an event to every subscriber of a room. Slow consumers are
// skipped rather than blocking the caller.
func (h *Hub) Publish(room string, event string, data interface{}) {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		log.Printf("ws marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[room] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// SendToUser delivers to all of a user's open connections.
func (h *Hub) SendToUser(userID uuid.UUID, event string, data interface{}) {
	h.Publish(userRoom(userID), event, data)
}

// SendToConversation notifies both participants directly, regardless of
// whether they joined the chat room yet (navbar badges, list refresh).
func (h *Hub) SendToConversation(clientID, freelancerID uuid.UUID, event string, data interface{}) {
	h.SendToUser(clientID, event, data)
	h.SendToUser(freelancerID, event, data)
}

// RoomSize reports the current subscriber count; used by tests and logs.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
