package hub

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is one live WebSocket connection. Its ID is the opaque connection
// handle the rest of the system keys sessions by.
type Client struct {
	ID     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	addr   string
	closed bool
}

func NewClient(conn *websocket.Conn, h *Hub, addr string) *Client {
	if conn != nil {
		conn.SetReadLimit(h.cfg.MaxMessageSize)
	}

	return &Client{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.cfg.SendBufferSize),
		addr: addr,
	}
}

func (c *Client) writeWait() time.Duration {
	return time.Duration(c.hub.cfg.WriteWaitSeconds) * time.Second
}

func (c *Client) pongWait() time.Duration {
	return time.Duration(c.hub.cfg.PongWaitSeconds) * time.Second
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("socket_id", c.ID).Warn("Unexpected socket close")
			}
			return
		}

		if c.hub.handler != nil {
			c.hub.handler.HandleMessage(c.ID, payload)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(time.Duration(c.hub.cfg.PingPeriodSeconds) * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait()))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logrus.WithError(err).WithField("socket_id", c.ID).Debug("Write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait()))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
