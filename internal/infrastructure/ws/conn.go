// Package ws adapts gorilla/websocket connections to the presence Conn port.
package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gigflow/marketplace/internal/core/domain"
	"github.com/gigflow/marketplace/internal/core/ports"
)

const (
	defaultSendBuffer   = 16
	defaultWriteTimeout = 10 * time.Second
	pongWait            = 60 * time.Second
	pingPeriod          = (pongWait * 9) / 10
	maxMessageSize      = 512
)

var (
	ErrClosed     = errors.New("ws: connection closed")
	ErrBufferFull = errors.New("ws: send buffer full")
)

// Options tunes a connection.
type Options struct {
	SendBuffer   int
	WriteTimeout time.Duration
}

// Conn is one client websocket. Writes happen on a dedicated goroutine fed by
// a bounded buffer, so Send never blocks the caller.
type Conn struct {
	id           string
	ws           *websocket.Conn
	send         chan domain.Notification
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	log          zerolog.Logger
}

var _ ports.Conn = (*Conn)(nil)

func NewConn(socket *websocket.Conn, opts Options, log zerolog.Logger) *Conn {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	id := uuid.NewString()
	return &Conn{
		id:           id,
		ws:           socket,
		send:         make(chan domain.Notification, opts.SendBuffer),
		done:         make(chan struct{}),
		writeTimeout: opts.WriteTimeout,
		log:          log.With().Str("conn_id", id).Logger(),
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues n for the write loop. It fails fast when the connection is
// closed or the buffer is full.
func (c *Conn) Send(n domain.Notification) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- n:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return ErrBufferFull
	}
}

// Close stops both loops and closes the socket. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// Serve runs the connection until the client goes away, ctx is cancelled, or
// Close is called. Inbound frames are discarded; the channel is push only.
func (c *Conn) Serve(ctx context.Context) {
	go c.writeLoop(ctx)
	c.readLoop()
	_ = c.Close()
}

func (c *Conn) readLoop() {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("websocket read ended")
			}
			return
		}
	}
}

func (c *Conn) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.writeClose()
			_ = c.Close()
			return
		case <-c.done:
			return
		case n := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteJSON(n); err != nil {
				c.log.Warn().Err(err).Str("recipient_id", n.RecipientID).Msg("websocket write failed")
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}

func (c *Conn) writeClose() {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
