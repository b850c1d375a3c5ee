package ws

import (
	"context"
	"sync"

	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/wsdto"

	"github.com/gorilla/websocket"
)

type Client struct {
	ctx    context.Context
	conn   *websocket.Conn
	egress chan wsdto.Event
	userId int64
	role   string

	closeOnce sync.Once
}

func NewClient(ctx context.Context, conn *websocket.Conn, userId int64, role string) *Client {
	return &Client{
		ctx:    ctx,
		conn:   conn,
		egress: make(chan wsdto.Event, 16),
		userId: userId,
		role:   role,
	}
}

// send drops the event when the client's buffer is full; a stalled consumer
// must not block the dispatcher.
func (c *Client) send(event wsdto.Event) {
	select {
	case c.egress <- event:
	default:
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.egress)
	})
}

// readLoop drains incoming frames; the notification socket is push-only, so
// anything the client sends is discarded. Returning signals disconnect.
func (c *Client) readLoop() {
	c.conn.SetReadLimit(1024)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writeLoop() {
	defer c.conn.Close()
	for {
		select {
		case <-c.ctx.Done():
			return
		case event, ok := <-c.egress:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}
