package live

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrQueueFull indicates the client is not draining its outbound queue.
	ErrQueueFull = errors.New("outbound queue full")
	// ErrConnClosed indicates delivery to an already-closed connection.
	ErrConnClosed = errors.New("connection closed")
)

// WSConn adapts a gorilla WebSocket connection to the registry's Conn
// interface. Deliver pushes onto a buffered queue drained by a single
// writer goroutine, so the dispatcher never blocks on a slow client.
type WSConn struct {
	id           string
	sock         *websocket.Conn
	out          chan Event
	writeTimeout time.Duration
	logger       *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewWSConn wraps sock with an outbound queue of the given depth.
func NewWSConn(log *slog.Logger, sock *websocket.Conn, buffer int, writeTimeout time.Duration) *WSConn {
	if log == nil {
		log = slog.Default()
	}
	if buffer <= 0 {
		buffer = 32
	}
	id := uuid.NewString()
	return &WSConn{
		id:           id,
		sock:         sock,
		out:          make(chan Event, buffer),
		writeTimeout: writeTimeout,
		logger:       log.With(slog.String("conn_id", id)),
	}
}

// ID returns the connection's registry identifier.
func (c *WSConn) ID() string {
	return c.id
}

// Deliver queues the event for the writer goroutine. It never blocks: a full
// queue or a closed connection is an error, and the caller drops the channel.
func (c *WSConn) Deliver(evt Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.out <- evt:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close shuts the outbound queue and the underlying socket. Safe to call
// more than once.
func (c *WSConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.out)
	c.mu.Unlock()

	_ = c.sock.Close()
}

// WritePump drains the outbound queue onto the socket, preserving emission
// order for this connection. It returns when the queue closes or a write
// fails; a write failure closes the connection so the reader unblocks.
func (c *WSConn) WritePump() {
	for evt := range c.out {
		if c.writeTimeout > 0 {
			_ = c.sock.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		}
		if err := c.sock.WriteJSON(evt); err != nil {
			c.logger.Debug("write failed", slog.Any("error", err))
			c.Close()
			return
		}
	}
}
