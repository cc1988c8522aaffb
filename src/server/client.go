package server

import (
	"sync"
	"time"

	"market-dashboard/src/models"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

type Client struct {
	hub  *DashboardServer
	conn *websocket.Conn
	send chan interface{}

	mu      sync.RWMutex
	groups  map[string]struct{}
	tickers map[string]struct{}
}

// -----------------------------------------------------------------------------

func (c *Client) subscribe(cmd models.MSubscribeCommand) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = toSet(cmd.Groups)
	c.tickers = toSet(cmd.Tickers)
}

// wants filters events by the subscription. Events without a group or ticker
// reach every client, as do all events for a client with no filter.
func (c *Client) wants(event *models.MDashboardEvent) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if event.Group != "" && len(c.groups) > 0 {
		if _, ok := c.groups[event.Group]; !ok {
			return false
		}
	}
	if event.Ticker != "" && len(c.tickers) > 0 {
		if _, ok := c.tickers[event.Ticker]; !ok {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// readPump - handles incoming messages from client
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		c.hub.Logger.Debug("Client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("WebSocket error: %v", err)
			}
			break
		}
		c.hub.HandleClientMessage(c, message)
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to client
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.Logger.Info("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
