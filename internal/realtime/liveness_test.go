package realtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_SweepsOnEveryTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var sweeps atomic.Int32
	m := NewMonitor(clock, 30*time.Second, func() { sweeps.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	clock.Advance(29 * time.Second)
	assert.Never(t, func() bool { return sweeps.Load() > 0 }, 20*time.Millisecond, 5*time.Millisecond)

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return sweeps.Load() == 1 }, time.Second, 5*time.Millisecond)

	clock.Advance(30 * time.Second)
	assert.Eventually(t, func() bool { return sweeps.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestNewMonitor_Defaults(t *testing.T) {
	m := NewMonitor(nil, 0, func() {})
	assert.Equal(t, DefaultHeartbeatInterval, m.interval)
	assert.NotNil(t, m.clock)
}

func TestHub_HeartbeatTwoTickEviction(t *testing.T) {
	hub := NewHub(&stubVerifier{}, nil)
	t.Cleanup(hub.Stop)

	tr := &fakeTransport{}
	conn := newConn(tr, "", 8)
	require.True(t, hub.Register(conn, "user-1"))

	hub.Heartbeat()
	infos := hub.Snapshot()
	require.Len(t, infos, 1)
	assert.False(t, infos[0].Alive)

	hub.Heartbeat()
	assert.Empty(t, hub.Snapshot())

	assert.Eventually(t, func() bool {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		return tr.closed
	}, time.Second, 5*time.Millisecond)
}

func TestHub_PongKeepsConnectionAlive(t *testing.T) {
	hub := NewHub(&stubVerifier{}, nil)
	t.Cleanup(hub.Stop)

	conn := newConn(&fakeTransport{}, "", 8)
	require.True(t, hub.Register(conn, ""))

	for range 3 {
		hub.Heartbeat()
		hub.Pong(conn.ID)
	}

	infos := hub.Snapshot()
	require.Len(t, infos, 1)
	assert.True(t, infos[0].Alive)
}

func TestHub_UnregisterTwiceIsHarmless(t *testing.T) {
	hub := NewHub(&stubVerifier{}, nil)
	t.Cleanup(hub.Stop)

	conn := newConn(&fakeTransport{}, "", 8)
	require.True(t, hub.Register(conn, "user-1"))

	hub.Unregister(conn.ID, "test")
	hub.Unregister(conn.ID, "test")

	assert.Empty(t, hub.Snapshot())
}

func TestHub_RegisterAfterStop(t *testing.T) {
	hub := NewHub(&stubVerifier{}, nil)
	hub.Stop()
	hub.Stop()

	assert.False(t, hub.Register(newConn(&fakeTransport{}, "", 8), ""))
	assert.False(t, hub.Broadcast(true, "", []byte("{}")))
	assert.Nil(t, hub.Snapshot())
}

func TestHub_StopClosesQueuedRegistrations(t *testing.T) {
	h := &Hub{
		cmdCh:    make(chan hubCmd, cmdBuffer),
		stopped:  make(chan struct{}),
		registry: NewRegistry(),
		verifier: &stubVerifier{},
		log:      newEventLogger(nil),
	}
	h.cmdCh <- cmdStop{}

	tr := &fakeTransport{}
	registered := make(chan bool, 1)
	go func() { registered <- h.Register(newConn(tr, "", 8), "user-1") }()

	require.Eventually(t, func() bool { return len(h.cmdCh) == 2 }, time.Second, time.Millisecond)
	go h.run()

	select {
	case ok := <-registered:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Register did not return")
	}
	<-h.stopped

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.True(t, tr.closed)
	assert.Empty(t, tr.texts)
}

// flakyTransport accepts ok writes and fails every one after.
type flakyTransport struct {
	fakeTransport
	ok int
}

func (f *flakyTransport) WriteMessage(kind int, data []byte) error {
	f.mu.Lock()
	if f.ok == 0 {
		f.mu.Unlock()
		return errors.New("broken pipe")
	}
	f.ok--
	f.mu.Unlock()
	return f.fakeTransport.WriteMessage(kind, data)
}

func TestHub_WriteFailureDropsOnlyThatConnection(t *testing.T) {
	hub := NewHub(&stubVerifier{}, nil)
	t.Cleanup(hub.Stop)

	bad := &flakyTransport{ok: 1}
	good := &fakeTransport{}
	badConn := newConn(bad, "", 8)
	goodConn := newConn(good, "", 8)
	require.True(t, hub.Register(badConn, "user-1"))
	require.True(t, hub.Register(goodConn, "user-1"))

	require.Eventually(t, func() bool {
		bad.mu.Lock()
		defer bad.mu.Unlock()
		return len(bad.texts) == 1
	}, time.Second, 5*time.Millisecond)

	require.True(t, hub.Broadcast(false, "user-1", []byte(`{"type":"budget:added"}`)))

	assert.Eventually(t, func() bool {
		infos := hub.Snapshot()
		return len(infos) == 1 && infos[0].ID == goodConn.ID
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		good.mu.Lock()
		defer good.mu.Unlock()
		return len(good.texts) == 2
	}, time.Second, 5*time.Millisecond)

	bad.mu.Lock()
	defer bad.mu.Unlock()
	assert.True(t, bad.closed)
}
