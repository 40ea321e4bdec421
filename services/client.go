package services

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/anteneh-g/tambola-backend/utils/logger"
)

// Client is one websocket subscriber of a game. Viewers are purely passive:
// the read pump only drains frames and tears the client down on disconnect;
// all mutating actions go through the REST surface.
type Client struct {
	gameID string
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	once   sync.Once
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// Send enqueues a message, dropping it when the client's buffer is full so a
// slow viewer never stalls the publisher.
func (c *Client) Send(b []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debugf("[client] send on closed client for game %s", c.gameID)
		}
	}()
	select {
	case c.send <- b:
	default:
		logger.Debugf("[client] dropping snapshot for slow client on game %s", c.gameID)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("[client] game %s viewer disconnected", c.gameID)
			} else {
				logger.Debugf("[client] game %s read error: %v", c.gameID, err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Debugf("[client] game %s write error: %v", c.gameID, err)
			return
		}
	}
}
