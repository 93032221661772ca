package realtime

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MallamTeja/Fintrack/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var (
	activeMu sync.Mutex
	active   *Controller
)

// Config tunes the realtime subsystem. Zero values take defaults.
type Config struct {
	AuthMode          AuthMode
	HeartbeatInterval time.Duration
	SendBuffer        int
	ReadLimit         int64
	AllowedOrigins    []string
}

type Option func(*Controller)

func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.log = logger }
}

// WithRelay mirrors every broadcast to other instances.
func WithRelay(relay Relay) Option {
	return func(c *Controller) { c.relay = relay }
}

// Controller owns the hub, the liveness monitor and the websocket endpoint.
// All broadcast methods are safe on a nil *Controller.
type Controller struct {
	cfg      Config
	verifier Verifier
	clock    clockwork.Clock
	log      *zap.Logger
	relay    Relay

	hub      *Hub
	dispatch dispatcher
	upgrader websocket.Upgrader

	cancel       context.CancelFunc
	monitorDone  chan struct{}
	shutdownOnce sync.Once
}

// Initialize starts the realtime subsystem. Only one controller is active
// per process: while one is running, further calls return it unchanged.
func Initialize(cfg Config, verifier Verifier, opts ...Option) (*Controller, error) {
	activeMu.Lock()
	defer activeMu.Unlock()

	if active != nil {
		return active, nil
	}

	c, err := newController(cfg, verifier, opts...)
	if err != nil {
		return nil, err
	}
	active = c
	return c, nil
}

func newController(cfg Config, verifier Verifier, opts ...Option) (*Controller, error) {
	if verifier == nil {
		return nil, errors.New("realtime: verifier is required")
	}
	mode, err := ParseAuthMode(string(cfg.AuthMode))
	if err != nil {
		return nil, err
	}
	cfg.AuthMode = mode
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaultSendBuffer
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = defaultReadLimit
	}

	c := &Controller{
		cfg:         cfg,
		verifier:    verifier,
		clock:       clockwork.NewRealClock(),
		log:         zap.L(),
		monitorDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.hub = NewHub(verifier, c.log)
	c.dispatch = dispatcher{
		hub:   c.hub,
		clock: c.clock,
		relay: c.relay,
		log:   c.log.With(zap.String("component", "realtime")),
	}
	c.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	monitor := NewMonitor(c.clock, cfg.HeartbeatInterval, c.hub.Heartbeat)
	go func() {
		defer close(c.monitorDone)
		monitor.Run(ctx)
	}()

	c.log.Info("realtime started",
		zap.String("auth_mode", string(cfg.AuthMode)),
		zap.Duration("heartbeat_interval", cfg.HeartbeatInterval),
	)
	return c, nil
}

// Shutdown stops the heartbeat, closes every connection with 1001 and
// releases the process-wide slot. It is idempotent.
func (c *Controller) Shutdown() {
	if c == nil {
		return
	}
	c.shutdownOnce.Do(func() {
		c.cancel()
		<-c.monitorDone
		c.hub.Stop()

		activeMu.Lock()
		if active == c {
			active = nil
		}
		activeMu.Unlock()

		c.log.Info("realtime stopped")
	})
}

// BroadcastAll sends an event to every authenticated connection.
func (c *Controller) BroadcastAll(eventType string, data any) {
	if c == nil {
		return
	}
	c.dispatch.broadcastAll(eventType, data)
}

// BroadcastToUser sends an event to every connection bound to userID.
func (c *Controller) BroadcastToUser(userID, eventType string, data any) {
	if c == nil {
		return
	}
	c.dispatch.broadcastToUser(userID, eventType, data)
}

// DeliverLocal hands an event received from another instance to local
// connections only.
func (c *Controller) DeliverLocal(msg RelayMessage) {
	if c == nil {
		return
	}
	c.dispatch.deliver(msg)
}

// Connections lists the currently registered connections.
func (c *Controller) Connections() []ConnInfo {
	if c == nil {
		return nil
	}
	return c.hub.Snapshot()
}

func (c *Controller) Handle(ctx *gin.Context) {
	c.ServeHTTP(ctx.Writer, ctx.Request)
}

// ServeHTTP upgrades the request and runs the connection's read loop until
// the peer goes away.
func (c *Controller) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var (
		userID  string
		authErr error
		header  http.Header
	)

	if c.cfg.AuthMode == AuthModeHeader {
		tok, protocol := credentialFromRequest(r)
		if tok == "" {
			authErr = errMissingCredential
		} else {
			userID, authErr = c.verifier.Verify(tok)
		}
		if protocol != "" {
			header = http.Header{}
			header.Set("Sec-WebSocket-Protocol", protocol)
		}
	}

	ws, err := c.upgrader.Upgrade(w, r, header)
	if err != nil {
		c.log.Debug("websocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	if authErr != nil {
		metrics.AuthAttemptsTotal.WithLabelValues(string(AuthModeHeader), "failure").Inc()
		c.log.Warn("websocket rejected",
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("reason", rejectReason(authErr)),
			zap.Error(authErr),
		)
		reject(ws, rejectReason(authErr))
		return
	}
	if userID != "" {
		metrics.AuthAttemptsTotal.WithLabelValues(string(AuthModeHeader), "success").Inc()
	}

	conn := newConn(ws, r.RemoteAddr, c.cfg.SendBuffer)
	conn.ConnectedAt = c.clock.Now()
	if !c.hub.Register(conn, userID) {
		conn.closeWith(websocket.CloseGoingAway, "Server shutting down")
		return
	}

	c.readLoop(ws, conn)
}

func (c *Controller) readLoop(ws *websocket.Conn, conn *Conn) {
	reason := "closed by client"
	defer func() { c.hub.Unregister(conn.ID, reason) }()

	ws.SetReadLimit(c.cfg.ReadLimit)
	ws.SetPongHandler(func(string) error {
		c.hub.Pong(conn.ID)
		return nil
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				reason = "read error"
			}
			return
		}
		c.hub.Inbound(conn.ID, data)
	}
}

func reject(ws *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = ws.Close()
}

// originChecker allows any origin when the list is empty or contains "*".
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}
