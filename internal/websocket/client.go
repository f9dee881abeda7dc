package websocket

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"lyceum/internal/config"
)

// Client is a middleman between a websocket connection and the hub.
// The stream is push-only: clients receive events but all writes go through
// the HTTP API, so inbound frames other than control messages are discarded.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound payloads.
	send chan []byte

	// Authenticated user ID for this connection.
	UserID uint
}

// readPump drains the connection so control frames (pong, close) are
// processed, and unregisters the client when the peer goes away.
func (c *Client) readPump(wsCfg config.WebSocketConfig) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(int64(wsCfg.MaxMessageSizeBytes))
	c.conn.SetReadDeadline(time.Now().Add(time.Duration(wsCfg.PongWaitSeconds) * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(time.Duration(wsCfg.PongWaitSeconds) * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error (user %d): %v", c.UserID, err)
			}
			break
		}
		// Data frames from the client are ignored on this stream.
	}
}

// writePump pumps payloads from the hub to the websocket connection.
func (c *Client) writePump(wsCfg config.WebSocketConfig) {
	ticker := time.NewTicker(time.Duration(wsCfg.PingPeriodSeconds) * time.Second)
	newline := []byte("\n")
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(time.Duration(wsCfg.WriteWaitSeconds) * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(payload)

			// Coalesce queued payloads into the same frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(time.Duration(wsCfg.WriteWaitSeconds) * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades the HTTP request and registers the connection with the hub.
func ServeWs(hub *Hub, userID uint, w http.ResponseWriter, r *http.Request, wsCfg config.WebSocketConfig) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("ServeWs upgrade failed:", err)
		return
	}
	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		UserID: userID,
	}
	client.hub.register <- client

	go client.writePump(wsCfg)
	go client.readPump(wsCfg)

	log.Printf("Client connected: user %d", userID)
}
