package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/MallamTeja/Fintrack/internal/metrics"
	"github.com/MallamTeja/Fintrack/internal/realtime"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	resubscribeInitial = time.Second
	resubscribeMax     = 30 * time.Second
)

// envelope tags a relayed event with the instance that published it so the
// publisher can skip its own copy.
type envelope struct {
	InstanceID string          `json:"instance_id"`
	Scope      string          `json:"scope"`
	UserID     string          `json:"user_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// publisher is the part of PubSub the relay writes through.
type publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type subscriber interface {
	Subscribe(ctx context.Context, channels []string, onReady func(), handler func(channel string, payload []byte)) error
}

// Relay mirrors realtime broadcasts to every other server instance over a
// single Redis channel.
type Relay struct {
	sub        subscriber
	pub        publisher
	clock      clockwork.Clock
	channel    string
	instanceID string
	log        *zap.Logger
}

func NewRelay(ps *PubSub, channel string, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.L()
	}
	return &Relay{
		sub:        ps,
		pub:        ps,
		clock:      clockwork.NewRealClock(),
		channel:    channel,
		instanceID: uuid.NewString(),
		log:        logger.With(zap.String("component", "relay")),
	}
}

func (r *Relay) InstanceID() string {
	return r.instanceID
}

// Publish implements realtime.Relay.
func (r *Relay) Publish(ctx context.Context, msg realtime.RelayMessage) error {
	data, err := json.Marshal(envelope{
		InstanceID: r.instanceID,
		Scope:      msg.Scope,
		UserID:     msg.UserID,
		Payload:    msg.Payload,
	})
	if err != nil {
		return fmt.Errorf("encode relay envelope: %w", err)
	}
	return r.pub.Publish(ctx, r.channel, data)
}

// Run delivers events published by other instances to deliver until ctx is
// cancelled. A lost subscription is retried with a doubling delay capped at
// resubscribeMax; the delay resets after a subscription is confirmed. ready,
// when set, is closed after the first confirmation.
func (r *Relay) Run(ctx context.Context, ready chan<- struct{}, deliver func(realtime.RelayMessage)) {
	r.log.Info("relay started", zap.String("instance_id", r.instanceID), zap.String("channel", r.channel))

	var readyOnce sync.Once
	handler := func(_ string, payload []byte) { r.handle(payload, deliver) }
	delay := resubscribeInitial
	for {
		subscribed := false
		err := r.sub.Subscribe(ctx, []string{r.channel}, func() {
			subscribed = true
			if ready != nil {
				readyOnce.Do(func() { close(ready) })
			}
		}, handler)
		if ctx.Err() != nil {
			return
		}
		if subscribed {
			delay = resubscribeInitial
		}

		r.log.Warn("relay subscription lost", zap.Error(err), zap.Duration("retry_in", delay))
		select {
		case <-r.clock.After(delay):
		case <-ctx.Done():
			return
		}
		delay = min(delay*2, resubscribeMax)
	}
}

func (r *Relay) handle(payload []byte, deliver func(realtime.RelayMessage)) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		metrics.RelayMessagesTotal.WithLabelValues("in", "invalid").Inc()
		r.log.Warn("invalid relay envelope", zap.Error(err))
		return
	}
	if env.InstanceID == r.instanceID {
		return
	}
	if env.Scope != realtime.ScopeAll && (env.Scope != realtime.ScopeUser || env.UserID == "") {
		metrics.RelayMessagesTotal.WithLabelValues("in", "invalid").Inc()
		r.log.Warn("relay envelope without target", zap.String("scope", env.Scope))
		return
	}

	metrics.RelayMessagesTotal.WithLabelValues("in", "ok").Inc()
	deliver(realtime.RelayMessage{Scope: env.Scope, UserID: env.UserID, Payload: env.Payload})
}
