package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/MallamTeja/Fintrack/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const cmdBuffer = 1024

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	conn     *Conn
	userID   string
	accepted chan struct{}
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	id     uuid.UUID
	reason string
}

func (cmdUnregister) hubCmd() {}

type cmdInbound struct {
	id  uuid.UUID
	raw []byte
}

func (cmdInbound) hubCmd() {}

type cmdAuthResult struct {
	id     uuid.UUID
	userID string
	err    error
}

func (cmdAuthResult) hubCmd() {}

type cmdPong struct {
	id uuid.UUID
}

func (cmdPong) hubCmd() {}

type cmdBroadcast struct {
	all    bool
	userID string
	data   []byte
}

func (cmdBroadcast) hubCmd() {}

type cmdHeartbeat struct {
	done chan struct{}
}

func (cmdHeartbeat) hubCmd() {}

type cmdSnapshot struct {
	reply chan []ConnInfo
}

func (cmdSnapshot) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// ConnInfo is a point-in-time view of one registered connection.
type ConnInfo struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Alive       bool      `json:"alive"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
}

// --- Hub ---

// Hub is the event loop that owns the registry. Every callback (register,
// message, pong, close, heartbeat, broadcast) is a command processed on a
// single goroutine, so registry mutations need no locking.
type Hub struct {
	cmdCh    chan hubCmd
	stopped  chan struct{}
	stopOnce sync.Once

	registry *Registry
	verifier Verifier
	log      eventLogger
}

func NewHub(verifier Verifier, logger *zap.Logger) *Hub {
	h := &Hub{
		cmdCh:    make(chan hubCmd, cmdBuffer),
		stopped:  make(chan struct{}),
		registry: NewRegistry(),
		verifier: verifier,
		log:      newEventLogger(logger),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
			close(c.accepted)
		case cmdUnregister:
			h.handleUnregister(c.id, c.reason)
		case cmdInbound:
			h.handleInbound(c)
		case cmdAuthResult:
			h.handleAuthResult(c)
		case cmdPong:
			if conn, ok := h.registry.Lookup(c.id); ok {
				conn.alive = true
			}
		case cmdBroadcast:
			h.handleBroadcast(c)
		case cmdHeartbeat:
			h.handleHeartbeat()
			close(c.done)
		case cmdSnapshot:
			c.reply <- h.snapshot()
		case cmdStop:
			h.handleStop()
			h.drain()
			return
		}
	}
}

// drain releases commands queued behind cmdStop. Their senders already saw
// the post succeed, so queued connections are closed here.
func (h *Hub) drain() {
	for {
		select {
		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case cmdRegister:
				c.conn.closeWith(websocket.CloseGoingAway, "Server shutting down")
			case cmdHeartbeat:
				close(c.done)
			}
		default:
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	conn := c.conn
	h.registry.Register(conn)
	go conn.writeLoop(func(err error) {
		h.log.Debug("write failed", nil, zap.String("conn_id", conn.ID.String()), zap.Error(err))
		h.Unregister(conn.ID, "write failed")
	})

	if c.userID != "" {
		if err := h.registry.Bind(conn.ID, c.userID); err != nil {
			h.log.Error("bind failed", conn, err)
		} else {
			h.reply(conn, authSuccessFrame)
		}
	}

	h.updateGauges()
	h.log.Info("client connected", conn, zap.String("remote_addr", conn.RemoteAddr))
}

func (h *Hub) handleUnregister(id uuid.UUID, reason string) {
	conn, ok := h.registry.Unregister(id)
	if !ok {
		return
	}
	conn.close()
	h.updateGauges()
	h.log.Info("client disconnected", conn, zap.String("reason", reason))
}

// evict closes and unregisters a connection from inside the loop.
func (h *Hub) evict(conn *Conn, reason string) {
	h.handleUnregister(conn.ID, reason)
}

func (h *Hub) handleInbound(c cmdInbound) {
	conn, ok := h.registry.Lookup(c.id)
	if !ok {
		return
	}

	var msg Inbound
	if err := json.Unmarshal(c.raw, &msg); err != nil {
		h.reply(conn, errorFrame(msgInvalidFormat))
		return
	}

	if msg.Type == "" {
		h.reply(conn, errorFrame(msgTypeRequired))
		return
	}

	if msg.Type == TypeAuth {
		h.beginAuth(conn, msg.Token)
		return
	}

	if conn.userID == "" {
		if conn.authPending {
			h.reply(conn, errorFrame(msgAuthInProgress))
		} else {
			h.reply(conn, errorFrame(msgNoToken))
		}
		return
	}

	switch msg.Type {
	case TypePing:
		h.reply(conn, pongFrame)
	default:
		h.log.Debug("unknown message type", conn, zap.String("msg_type", msg.Type))
		h.reply(conn, errorFrame(msgUnknownType))
	}
}

// beginAuth verifies off the loop; the first in-flight attempt wins.
func (h *Hub) beginAuth(conn *Conn, tok string) {
	if conn.authPending {
		h.reply(conn, authErrorFrame(msgAuthAlreadyBusy))
		return
	}
	conn.authPending = true

	id := conn.ID
	go func() {
		userID, err := h.verifier.Verify(tok)
		h.post(cmdAuthResult{id: id, userID: userID, err: err})
	}()
}

func (h *Hub) handleAuthResult(c cmdAuthResult) {
	conn, ok := h.registry.Lookup(c.id)
	if !ok {
		return
	}
	conn.authPending = false

	if c.err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues(string(AuthModeMessage), "failure").Inc()
		h.log.Warn("authentication failed", conn, zap.Error(c.err))
		h.reply(conn, authErrorFrame(authMessage(c.err)))
		return
	}

	if err := h.registry.Bind(conn.ID, c.userID); err != nil {
		h.log.Error("bind failed", conn, err)
		h.reply(conn, authErrorFrame(reasonAuthFailed))
		return
	}

	metrics.AuthAttemptsTotal.WithLabelValues(string(AuthModeMessage), "success").Inc()
	h.updateGauges()
	h.log.Info("client authenticated", conn)
	h.reply(conn, authSuccessFrame)
}

func (h *Hub) handleBroadcast(c cmdBroadcast) {
	var targets []*Conn
	if c.all {
		targets = h.registry.All()
	} else {
		targets = h.registry.ConnectionsFor(c.userID)
	}

	for _, conn := range targets {
		if conn.userID == "" || !conn.isOpen() {
			continue
		}
		if h.reply(conn, c.data) {
			metrics.EventsDeliveredTotal.Inc()
		}
	}
}

// handleHeartbeat terminates connections that missed the previous ping and
// pings the rest.
func (h *Hub) handleHeartbeat() {
	for _, conn := range h.registry.All() {
		if !conn.alive {
			metrics.HeartbeatEvictionsTotal.Inc()
			h.evict(conn, "heartbeat timeout")
			continue
		}
		conn.alive = false
		if !conn.enqueue(frame{kind: framePing}) {
			h.evictSlow(conn)
		}
	}
}

func (h *Hub) handleStop() {
	for _, conn := range h.registry.Clear() {
		conn.closeWith(websocket.CloseGoingAway, "Server shutting down")
	}
	h.updateGauges()
	h.log.Info("hub stopped", nil)
}

// reply queues data for conn, evicting it when its queue is full.
func (h *Hub) reply(conn *Conn, data []byte) bool {
	if conn.enqueue(frame{kind: frameText, data: data}) {
		return true
	}
	if conn.isOpen() {
		h.evictSlow(conn)
	}
	return false
}

func (h *Hub) evictSlow(conn *Conn) {
	metrics.SlowClientsEvictedTotal.Inc()
	h.log.Warn("send queue full", conn)
	h.evict(conn, "send queue full")
}

func (h *Hub) snapshot() []ConnInfo {
	all := h.registry.All()
	out := make([]ConnInfo, 0, len(all))
	for _, c := range all {
		out = append(out, ConnInfo{
			ID:          c.ID,
			UserID:      c.userID,
			Alive:       c.alive,
			RemoteAddr:  c.RemoteAddr,
			ConnectedAt: c.ConnectedAt,
		})
	}
	return out
}

func (h *Hub) updateGauges() {
	metrics.ConnectionsActive.Set(float64(h.registry.Len()))
	metrics.ConnectionsAuthenticated.Set(float64(h.registry.AuthenticatedLen()))
}

// --- Public API ---

// post blocks until the loop accepts cmd or the hub has stopped.
func (h *Hub) post(cmd hubCmd) bool {
	select {
	case <-h.stopped:
		return false
	default:
	}
	select {
	case h.cmdCh <- cmd:
		return true
	case <-h.stopped:
		return false
	}
}

// tryPost never blocks.
func (h *Hub) tryPost(cmd hubCmd) bool {
	select {
	case <-h.stopped:
		return false
	default:
	}
	select {
	case h.cmdCh <- cmd:
		return true
	default:
		return false
	}
}

// Register adds conn, bound to userID when it is non-empty, and waits for the
// loop to take it. It reports false when the hub stopped first.
func (h *Hub) Register(conn *Conn, userID string) bool {
	accepted := make(chan struct{})
	if !h.post(cmdRegister{conn: conn, userID: userID, accepted: accepted}) {
		return false
	}
	select {
	case <-accepted:
		return true
	case <-h.stopped:
		select {
		case <-accepted:
			return true
		default:
			return false
		}
	}
}

// Unregister is safe to call any number of times for the same id.
func (h *Hub) Unregister(id uuid.UUID, reason string) {
	h.post(cmdUnregister{id: id, reason: reason})
}

func (h *Hub) Inbound(id uuid.UUID, raw []byte) {
	h.post(cmdInbound{id: id, raw: raw})
}

func (h *Hub) Pong(id uuid.UUID) {
	h.post(cmdPong{id: id})
}

// Broadcast hands a serialized event to the loop without blocking. An empty
// userID with all=false matches nobody.
func (h *Hub) Broadcast(all bool, userID string, data []byte) bool {
	return h.tryPost(cmdBroadcast{all: all, userID: userID, data: data})
}

// Heartbeat runs one liveness sweep and waits for it to finish.
func (h *Hub) Heartbeat() {
	done := make(chan struct{})
	if !h.post(cmdHeartbeat{done: done}) {
		return
	}
	select {
	case <-done:
	case <-h.stopped:
	}
}

// Snapshot lists registered connections; nil after Stop.
func (h *Hub) Snapshot() []ConnInfo {
	reply := make(chan []ConnInfo, 1)
	if !h.post(cmdSnapshot{reply: reply}) {
		return nil
	}
	select {
	case infos := <-reply:
		return infos
	case <-h.stopped:
		return nil
	}
}

// Stop closes every connection, clears the registry and ends the loop.
// Later calls return immediately.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		if h.post(cmdStop{}) {
			<-h.stopped
		}
	})
}
