package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	defaultReadLimit  = 64 * 1024
	defaultSendBuffer = 256
)

// Transport is the subset of *websocket.Conn a Conn writes through.
type Transport interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type frameKind int

const (
	frameText frameKind = iota
	framePing
)

type frame struct {
	kind frameKind
	data []byte
}

// Conn is one live client session. Identity and liveness fields belong to
// the hub loop; everything else is safe from any goroutine.
type Conn struct {
	ID          uuid.UUID
	RemoteAddr  string
	ConnectedAt time.Time

	transport Transport
	send      chan frame
	done      chan struct{}
	closeOnce sync.Once

	userID      string
	alive       bool
	authPending bool
}

func newConn(t Transport, remoteAddr string, buffer int) *Conn {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	return &Conn{
		ID:          uuid.New(),
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		transport:   t,
		send:        make(chan frame, buffer),
		done:        make(chan struct{}),
		alive:       true,
	}
}

// enqueue never blocks. It reports false when the connection is closed or
// its queue is full.
func (c *Conn) enqueue(f frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- f:
		return true
	default:
		return false
	}
}

func (c *Conn) isOpen() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// writeLoop drains the queue in order until the connection closes or a
// write fails.
func (c *Conn) writeLoop(onError func(error)) {
	for {
		select {
		case <-c.done:
			return
		case f := <-c.send:
			if err := c.write(f); err != nil {
				if c.isOpen() {
					onError(err)
				}
				return
			}
		}
	}
}

func (c *Conn) write(f frame) error {
	deadline := time.Now().Add(writeWait)
	if f.kind == framePing {
		return c.transport.WriteControl(websocket.PingMessage, nil, deadline)
	}
	_ = c.transport.SetWriteDeadline(deadline)
	return c.transport.WriteMessage(websocket.TextMessage, f.data)
}

// close terminates the transport without a close handshake.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.transport.Close()
	})
}

// closeWith sends a close frame carrying code and reason before terminating.
func (c *Conn) closeWith(code int, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(code, reason)
		_ = c.transport.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = c.transport.Close()
	})
}
