package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MallamTeja/Fintrack/internal/metrics"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Broadcast scopes.
const (
	ScopeAll  = "all"
	ScopeUser = "user"
)

const relayPublishTimeout = 2 * time.Second

// RelayMessage is a serialized event travelling between server instances.
type RelayMessage struct {
	Scope   string          `json:"scope"`
	UserID  string          `json:"user_id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Relay forwards events to other instances. Implementations must not
// deliver a message back to the instance that published it.
type Relay interface {
	Publish(ctx context.Context, msg RelayMessage) error
}

// dispatcher turns broadcast calls into hub commands. It never blocks the
// caller and never returns an error to it.
type dispatcher struct {
	hub   *Hub
	clock clockwork.Clock
	relay Relay
	log   *zap.Logger
}

func (d *dispatcher) broadcastAll(eventType string, data any) {
	payload, ok := d.encode(eventType, data)
	if !ok {
		return
	}
	d.deliver(RelayMessage{Scope: ScopeAll, Payload: payload})
	d.publish(RelayMessage{Scope: ScopeAll, Payload: payload})
}

func (d *dispatcher) broadcastToUser(userID, eventType string, data any) {
	if userID == "" {
		return
	}
	payload, ok := d.encode(eventType, data)
	if !ok {
		return
	}
	msg := RelayMessage{Scope: ScopeUser, UserID: userID, Payload: payload}
	d.deliver(msg)
	d.publish(msg)
}

// encode serializes the event once for every recipient.
func (d *dispatcher) encode(eventType string, data any) ([]byte, bool) {
	payload, err := json.Marshal(NewEvent(eventType, data, d.clock.Now()))
	if err != nil {
		d.log.Error("failed to encode event", zap.String("event_type", eventType), zap.Error(err))
		metrics.EventsDroppedTotal.WithLabelValues("encode").Inc()
		return nil, false
	}
	return payload, true
}

// deliver sends an already-serialized event to local connections.
func (d *dispatcher) deliver(msg RelayMessage) {
	scope := msg.Scope
	if scope != ScopeAll {
		scope = ScopeUser
	}
	if !d.hub.Broadcast(scope == ScopeAll, msg.UserID, msg.Payload) {
		d.log.Warn("broadcast dropped", zap.String("scope", scope))
		metrics.EventsDroppedTotal.WithLabelValues("hub_busy").Inc()
		return
	}
	metrics.EventsBroadcastTotal.WithLabelValues(scope).Inc()
}

func (d *dispatcher) publish(msg RelayMessage) {
	if d.relay == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), relayPublishTimeout)
		defer cancel()
		if err := d.relay.Publish(ctx, msg); err != nil {
			d.log.Warn("relay publish failed", zap.String("scope", msg.Scope), zap.Error(err))
		}
	}()
}
