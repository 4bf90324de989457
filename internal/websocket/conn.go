package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wastebill/wastebill-backend/pkg/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Admin clients only send pings.
	maxMessageSize = 4 * 1024
)

// Conn wraps a gorilla websocket connection
type Conn struct {
	*websocket.Conn
}

func (h *Hub) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// non-browser clients send no origin
			return origin == "" || h.allowedOrigins[origin]
		},
	}
}

// Serve upgrades the request and attaches the admin to the feed
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, adminID uint) error {
	conn, err := h.upgrader().Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		Hub:           h,
		Conn:          &Conn{Conn: conn},
		AdminID:       adminID,
		Send:          make(chan []byte, sendBufferSize),
		LastResetTime: time.Now(),
	}
	h.Register(client)

	go client.WritePump()
	go client.ReadPump()
	return nil
}

// ReadPump reads client messages until the connection drops
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("Admin feed read error", err, map[string]interface{}{
					"admin_id": c.AdminID,
				})
			}
			break
		}
		c.Hub.HandleClientMessage(c, message)
	}
}

// WritePump writes queued events and keeps the connection alive
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error("Failed to write admin feed message", err, map[string]interface{}{
					"admin_id": c.AdminID,
				})
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
