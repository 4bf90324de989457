package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/wastebill/wastebill-backend/pkg/logger"
)

// Admin live-feed event types
const (
	EventSlipUploaded       = "slip_uploaded"
	EventIssueReported      = "issue_reported"
	EventBillingRunFinished = "billing_run_finished"
)

const (
	// Rate limiting: max client messages per second
	maxMessagesPerSecond = 10

	sendBufferSize = 256
)

// Event is the envelope pushed to every connected admin
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}

// ClientMessage is what an admin client may send
type ClientMessage struct {
	Type string `json:"type"` // ping
}

// Client is one admin websocket session
type Client struct {
	Hub           *Hub
	Conn          *Conn
	AdminID       uint
	Send          chan []byte
	MessageCount  int
	LastResetTime time.Time
	RateMu        sync.Mutex
}

// Hub fans events out to every admin session
type Hub struct {
	// AdminID -> sessions (one admin may have several tabs open)
	clients map[uint][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	stop       chan struct{}

	allowedOrigins map[string]bool

	mu sync.RWMutex
}

func NewHub(allowedOrigins []string) *Hub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Hub{
		clients:        make(map[uint][]*Client),
		register:       make(chan *Client, 64),
		unregister:     make(chan *Client, 64),
		broadcast:      make(chan []byte, 256),
		stop:           make(chan struct{}),
		allowedOrigins: origins,
	}
}

// Run processes registrations and broadcasts until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for id, list := range h.clients {
				for _, c := range list {
					close(c.Send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.AdminID] = append(h.clients[client.AdminID], client)
			sessions := len(h.clients[client.AdminID])
			h.mu.Unlock()
			logger.Info("Admin feed client registered", map[string]interface{}{
				"admin_id":       client.AdminID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			var slow []*Client
			h.mu.RLock()
			for _, list := range h.clients {
				for _, client := range list {
					select {
					case client.Send <- message:
					default:
						slow = append(slow, client)
					}
				}
			}
			h.mu.RUnlock()
			for _, client := range slow {
				logger.Warn("Admin feed send buffer full, disconnecting", map[string]interface{}{
					"admin_id": client.AdminID,
				})
				h.removeClient(client)
			}
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.AdminID]
	if !ok {
		return
	}
	remaining := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		remaining = append(remaining, c)
	}
	if !found {
		return
	}
	if len(remaining) == 0 {
		delete(h.clients, client.AdminID)
	} else {
		h.clients[client.AdminID] = remaining
	}
	close(client.Send)

	logger.Info("Admin feed client unregistered", map[string]interface{}{
		"admin_id":           client.AdminID,
		"remaining_sessions": len(remaining),
	})
}

// Stop ends Run and closes every session
func (h *Hub) Stop() {
	close(h.stop)
}

// Publish broadcasts an event to all admins. Events are dropped when the hub is saturated.
func (h *Hub) Publish(eventType string, data interface{}) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(Event{Type: eventType, Data: data, At: time.Now()})
	if err != nil {
		logger.Error("Failed to marshal admin feed event", err, map[string]interface{}{
			"type": eventType,
		})
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		logger.Warn("Admin feed broadcast channel full, event dropped", map[string]interface{}{
			"type": eventType,
		})
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// OnlineAdmins returns the number of connected admin accounts
func (h *Hub) OnlineAdmins() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleClientMessage answers pings; anything else is ignored
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Admin feed client rate limit exceeded", map[string]interface{}{
			"admin_id": client.AdminID,
			"count":    count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse admin feed message", map[string]interface{}{
			"admin_id": client.AdminID,
			"error":    err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		pong, _ := json.Marshal(Event{Type: "pong", At: now})
		select {
		case client.Send <- pong:
		default:
		}
	}
}
