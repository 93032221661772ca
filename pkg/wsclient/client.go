// Package wsclient is a Go client for the FinTrack realtime endpoint. It
// authenticates in-band, drops events until the server acknowledges the
// token, dispatches events to handlers by type and reconnects with
// exponential backoff.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ErrGaveUp is returned by Run once MaxAttempts consecutive reconnects fail.
var ErrGaveUp = errors.New("wsclient: reconnect attempts exhausted")

var errNotConnected = errors.New("wsclient: not connected")

const (
	typeAuth      = "auth"
	statusSuccess = "success"
	writeWait     = 10 * time.Second
)

type Config struct {
	URL   string
	Token string

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// MaxAttempts bounds consecutive failed reconnects. The counter resets
	// whenever a dial succeeds.
	MaxAttempts int

	Dialer *websocket.Dialer
	Clock  clockwork.Clock
	Logger *zap.Logger
}

func (c *Config) setDefaults() {
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.Multiplier < 1 {
		c.Multiplier = 2
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = zap.L()
	}
}

// Event is any frame received from the server. Data is left raw so handlers
// can decode into their own types.
type Event struct {
	Type      string          `json:"type"`
	Status    string          `json:"status,omitempty"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

type Handler func(Event)

type Client struct {
	cfg Config
	log *zap.Logger

	handlersMu sync.RWMutex
	handlers   map[string][]Handler

	mu      sync.Mutex
	conn    *websocket.Conn
	authed  bool
	ready   chan struct{}
	writeMu sync.Mutex
}

func New(cfg Config) *Client {
	cfg.setDefaults()
	return &Client{
		cfg:      cfg,
		log:      cfg.Logger.With(zap.String("component", "wsclient")),
		handlers: make(map[string][]Handler),
		ready:    make(chan struct{}),
	}
}

// On registers h for events of the given type. Handlers for "auth" and
// "error" also see replies received before authentication.
func (c *Client) On(eventType string, h Handler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers[eventType] = append(c.handlers[eventType], h)
}

func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authed
}

// WaitAuthenticated blocks until the current connection is authenticated.
func (c *Client) WaitAuthenticated(ctx context.Context) error {
	c.mu.Lock()
	ready := c.ready
	c.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send writes v as a JSON text frame on the current connection.
func (c *Client) Send(v any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// Ping sends an application-level ping; the server answers with "pong".
func (c *Client) Ping() error {
	return c.Send(map[string]string{"type": "ping"})
}

// Run connects and keeps the client connected until ctx is cancelled, or
// returns ErrGaveUp once MaxAttempts sessions in a row ended without
// authenticating. A server that accepts and then drops the socket counts
// as a failure.
func (c *Client) Run(ctx context.Context) error {
	attempts := 0
	for {
		authenticated, err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if authenticated {
			attempts = 0
		}

		attempts++
		if attempts > c.cfg.MaxAttempts {
			c.log.Warn("max reconnection attempts reached", zap.Int("attempts", c.cfg.MaxAttempts), zap.Error(err))
			return fmt.Errorf("%w: %v", ErrGaveUp, err)
		}

		delay := Backoff(c.cfg.InitialBackoff, c.cfg.MaxBackoff, c.cfg.Multiplier, attempts)
		c.log.Info("reconnecting",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", c.cfg.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-c.cfg.Clock.After(delay):
		case <-ctx.Done():
			return nil
		}
	}
}

// Backoff returns the delay before the given reconnect attempt (1-based).
func Backoff(initial, maxDelay time.Duration, multiplier float64, attempt int) time.Duration {
	d := float64(initial)
	for i := 1; i < attempt; i++ {
		d *= multiplier
		if d >= float64(maxDelay) {
			return maxDelay
		}
	}
	if time.Duration(d) > maxDelay {
		return maxDelay
	}
	return time.Duration(d)
}

// session runs one connection until it drops. authenticated reports whether
// the server accepted the token during it.
func (c *Client) session(ctx context.Context) (authenticated bool, err error) {
	conn, _, err := c.cfg.Dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	done := make(chan struct{})
	defer func() {
		close(done)
		c.mu.Lock()
		c.conn = nil
		authenticated = c.authed
		if c.authed {
			c.authed = false
			c.ready = make(chan struct{})
		}
		c.mu.Unlock()
		_ = conn.Close()
	}()
	go func() {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			_ = conn.Close()
		case <-done:
		}
	}()

	c.log.Debug("connected", zap.String("url", c.cfg.URL))
	if err := c.Send(map[string]string{"type": typeAuth, "token": c.cfg.Token}); err != nil {
		return false, err
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return false, err
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.Debug("ignoring malformed frame", zap.Error(err))
			continue
		}
		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev Event) {
	switch ev.Type {
	case typeAuth:
		if ev.Status == statusSuccess {
			c.markAuthenticated()
		} else {
			c.log.Warn("authentication failed", zap.String("message", ev.Message))
		}
	case "error", "pong":
	default:
		if !c.Authenticated() {
			c.log.Debug("ignoring event before authentication", zap.String("type", ev.Type))
			return
		}
	}

	c.handlersMu.RLock()
	handlers := append([]Handler(nil), c.handlers[ev.Type]...)
	c.handlersMu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

func (c *Client) markAuthenticated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authed {
		return
	}
	c.authed = true
	close(c.ready)
}
