package server

import (
	"chat-exchange/domain"
	"chat-exchange/errors"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var _ domain.Conn = (*Conn)(nil)

// Conn adapts a gorilla websocket to domain.Conn.
// gorilla allows one concurrent writer only, so data frames are serialized here.
type Conn struct {
	mu           sync.Mutex
	ws           *websocket.Conn
	addr         string
	writeTimeout time.Duration
	closeOnce    sync.Once
	closed       chan struct{}
}

func NewConn(ws *websocket.Conn, addr string, writeTimeout time.Duration) *Conn {
	return &Conn{ws: ws, addr: addr, writeTimeout: writeTimeout, closed: make(chan struct{})}
}

func (c *Conn) RemoteAddr() string {
	return c.addr
}

// Send writes one text frame. The write deadline is the earliest of ctx's deadline and the write timeout.
func (c *Conn) Send(ctx context.Context, message string) error {
	select {
	case <-c.closed:
		return errors.ErrPeerClosed
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.ws.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		return fmt.Errorf("write to %s: %w", c.addr, err)
	}
	return nil
}

// Ping sends a control frame; gorilla allows it concurrently with Send.
func (c *Conn) Ping(ctx context.Context) error {
	select {
	case <-c.closed:
		return errors.ErrPeerClosed
	default:
	}
	if err := c.ws.WriteControl(websocket.PingMessage, nil, c.deadline(ctx)); err != nil {
		return fmt.Errorf("ping %s: %w", c.addr, err)
	}
	return nil
}

// Close sends a close frame (best effort) and releases the socket. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		return d
	}
	return deadline
}
