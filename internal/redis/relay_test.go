package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MallamTeja/Fintrack/internal/realtime"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	channel string
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	f.channel = channel
	f.payload = payload
	return f.err
}

func newTestRelay(pub publisher) *Relay {
	return &Relay{pub: pub, channel: "fintrack:events", instanceID: "node-a", log: zap.NewNop()}
}

func TestRelay_PublishWrapsEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	r := newTestRelay(pub)

	err := r.Publish(context.Background(), realtime.RelayMessage{
		Scope:   realtime.ScopeUser,
		UserID:  "user-1",
		Payload: json.RawMessage(`{"type":"budget:added"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "fintrack:events", pub.channel)
	var env envelope
	require.NoError(t, json.Unmarshal(pub.payload, &env))
	assert.Equal(t, "node-a", env.InstanceID)
	assert.Equal(t, realtime.ScopeUser, env.Scope)
	assert.Equal(t, "user-1", env.UserID)
	assert.JSONEq(t, `{"type":"budget:added"}`, string(env.Payload))
}

func TestRelay_PublishPropagatesError(t *testing.T) {
	r := newTestRelay(&fakePublisher{err: errors.New("connection refused")})
	err := r.Publish(context.Background(), realtime.RelayMessage{Scope: realtime.ScopeAll, Payload: json.RawMessage(`{}`)})
	assert.Error(t, err)
}

func TestRelay_Handle(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    *realtime.RelayMessage
	}{
		{
			name:    "other instance, user scope",
			payload: `{"instance_id":"node-b","scope":"user","user_id":"user-1","payload":{"type":"x"}}`,
			want:    &realtime.RelayMessage{Scope: "user", UserID: "user-1", Payload: json.RawMessage(`{"type":"x"}`)},
		},
		{
			name:    "other instance, all scope",
			payload: `{"instance_id":"node-b","scope":"all","payload":{"type":"x"}}`,
			want:    &realtime.RelayMessage{Scope: "all", Payload: json.RawMessage(`{"type":"x"}`)},
		},
		{
			name:    "own message skipped",
			payload: `{"instance_id":"node-a","scope":"all","payload":{}}`,
		},
		{
			name:    "user scope without user",
			payload: `{"instance_id":"node-b","scope":"user","payload":{}}`,
		},
		{
			name:    "unknown scope",
			payload: `{"instance_id":"node-b","scope":"room","payload":{}}`,
		},
		{
			name:    "garbage",
			payload: `not json`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRelay(&fakePublisher{})
			var got *realtime.RelayMessage
			r.handle([]byte(tt.payload), func(m realtime.RelayMessage) { got = &m })

			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want.Scope, got.Scope)
			assert.Equal(t, tt.want.UserID, got.UserID)
			assert.JSONEq(t, string(tt.want.Payload), string(got.Payload))
		})
	}
}

func TestNewRelay_UniqueInstanceIDs(t *testing.T) {
	a := NewRelay(nil, "c", zap.NewNop())
	b := NewRelay(nil, "c", zap.NewNop())
	assert.NotEqual(t, a.InstanceID(), b.InstanceID())
}

// flakySubscriber fails the first failures calls, then confirms and delivers
// one event from another instance.
type flakySubscriber struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakySubscriber) Subscribe(ctx context.Context, _ []string, onReady func(), handler func(string, []byte)) error {
	if f.calls.Add(1) <= f.failures {
		return errors.New("connection reset by peer")
	}
	onReady()
	handler("fintrack:events", []byte(`{"instance_id":"node-b","scope":"all","payload":{"type":"goal:added"}}`))
	<-ctx.Done()
	return nil
}

func TestRelay_RunResubscribesWithBackoff(t *testing.T) {
	sub := &flakySubscriber{failures: 2}
	clock := clockwork.NewFakeClock()
	r := newTestRelay(&fakePublisher{})
	r.sub = sub
	r.clock = clock

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ready := make(chan struct{})
	delivered := make(chan realtime.RelayMessage, 1)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		r.Run(ctx, ready, func(m realtime.RelayMessage) { delivered <- m })
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(resubscribeInitial)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(resubscribeInitial)
	assert.Never(t, func() bool { return sub.calls.Load() > 2 }, 20*time.Millisecond, 5*time.Millisecond)
	clock.Advance(resubscribeInitial)

	select {
	case <-ready:
	case <-ctx.Done():
		t.Fatal("relay never resubscribed")
	}
	select {
	case m := <-delivered:
		assert.Equal(t, realtime.ScopeAll, m.Scope)
	case <-ctx.Done():
		t.Fatal("event not delivered after resubscribe")
	}
	assert.Equal(t, int32(3), sub.calls.Load())

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
