package redis

import (
	"context"
	"fmt"

	"github.com/MallamTeja/Fintrack/internal/metrics"

	goredis "github.com/redis/go-redis/v9"
)

// PubSub publishes and consumes raw payloads on Redis channels.
type PubSub struct {
	client *goredis.Client
}

func NewPubSub(client *goredis.Client) *PubSub {
	return &PubSub{client: client}
}

func (p *PubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		metrics.RelayMessagesTotal.WithLabelValues("out", "error").Inc()
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	metrics.RelayMessagesTotal.WithLabelValues("out", "ok").Inc()
	return nil
}

// Subscribe blocks, calling handler for every message on channels, until ctx
// is cancelled or the subscription fails. onReady, when set, runs once the
// server has confirmed the subscription.
func (p *PubSub) Subscribe(ctx context.Context, channels []string, onReady func(), handler func(channel string, payload []byte)) error {
	sub := p.client.Subscribe(ctx, channels...)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %v: %w", channels, err)
	}
	if onReady != nil {
		onReady()
	}

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		handler(msg.Channel, []byte(msg.Payload))
	}
}
