package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu     sync.Mutex
	texts  [][]byte
	pings  int
	closed bool
}

func (f *fakeTransport) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, data)
	return nil
}

func (f *fakeTransport) WriteControl(_ int, _ []byte, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return nil
}

func (f *fakeTransport) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newTestConn() *Conn {
	return newConn(&fakeTransport{}, "127.0.0.1:1", 4)
}

func TestRegistry_BindAndLookup(t *testing.T) {
	r := NewRegistry()
	a, b := newTestConn(), newTestConn()
	r.Register(a)
	r.Register(b)

	require.NoError(t, r.Bind(a.ID, "user-1"))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 1, r.AuthenticatedLen())
	assert.Equal(t, 1, r.UserCount())
	assert.ElementsMatch(t, []*Conn{a}, r.ConnectionsFor("user-1"))
	assert.Empty(t, r.ConnectionsFor("user-2"))

	got, ok := r.Lookup(b.ID)
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestRegistry_BindErrors(t *testing.T) {
	r := NewRegistry()
	c := newTestConn()

	assert.ErrorIs(t, r.Bind(c.ID, "user-1"), ErrNotRegistered)

	r.Register(c)
	assert.ErrorIs(t, r.Bind(c.ID, ""), ErrEmptyIdentity)
	assert.Equal(t, 0, r.AuthenticatedLen())
}

func TestRegistry_BindSameUserIsIdempotent(t *testing.T) {
	r := NewRegistry()
	c := newTestConn()
	r.Register(c)

	require.NoError(t, r.Bind(c.ID, "user-1"))
	require.NoError(t, r.Bind(c.ID, "user-1"))

	assert.Len(t, r.ConnectionsFor("user-1"), 1)
	assert.Equal(t, 1, r.AuthenticatedLen())
}

func TestRegistry_RebindMovesConnection(t *testing.T) {
	r := NewRegistry()
	c := newTestConn()
	r.Register(c)

	require.NoError(t, r.Bind(c.ID, "user-1"))
	require.NoError(t, r.Bind(c.ID, "user-2"))

	assert.Empty(t, r.ConnectionsFor("user-1"))
	assert.Len(t, r.ConnectionsFor("user-2"), 1)
	assert.Equal(t, 1, r.UserCount())
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	c := newTestConn()
	r.Register(c)
	require.NoError(t, r.Bind(c.ID, "user-1"))

	got, ok := r.Unregister(c.ID)
	require.True(t, ok)
	assert.Same(t, c, got)

	_, ok = r.Unregister(c.ID)
	assert.False(t, ok)

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.UserCount())

	_, ok = r.Unregister(uuid.New())
	assert.False(t, ok)
}

func TestRegistry_NoLeakAfterMixedLifecycle(t *testing.T) {
	r := NewRegistry()
	var conns []*Conn
	for i := range 10 {
		c := newTestConn()
		r.Register(c)
		if i%2 == 0 {
			require.NoError(t, r.Bind(c.ID, "user-"+string(rune('a'+i%3))))
		}
		conns = append(conns, c)
	}

	for _, c := range conns {
		r.Unregister(c.ID)
		r.Unregister(c.ID)
	}

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.AuthenticatedLen())
	assert.Equal(t, 0, r.UserCount())
}

func TestRegistry_AllIsSnapshot(t *testing.T) {
	r := NewRegistry()
	for range 3 {
		r.Register(newTestConn())
	}

	for _, c := range r.All() {
		r.Unregister(c.ID)
	}
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	c := newTestConn()
	r.Register(c)
	require.NoError(t, r.Bind(c.ID, "user-1"))

	cleared := r.Clear()

	assert.Len(t, cleared, 1)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.UserCount())
	assert.Empty(t, c.userID)
}

func TestConn_EnqueueNeverBlocks(t *testing.T) {
	c := newConn(&fakeTransport{}, "", 2)

	assert.True(t, c.enqueue(frame{kind: frameText, data: []byte("a")}))
	assert.True(t, c.enqueue(frame{kind: frameText, data: []byte("b")}))
	assert.False(t, c.enqueue(frame{kind: frameText, data: []byte("c")}))

	c.close()
	c.close()
	assert.False(t, c.isOpen())
	assert.False(t, c.enqueue(frame{kind: frameText}))
}

func TestConn_WriteLoopPreservesOrder(t *testing.T) {
	tr := &fakeTransport{}
	c := newConn(tr, "", 8)
	for _, s := range []string{"1", "2", "3"} {
		require.True(t, c.enqueue(frame{kind: frameText, data: []byte(s)}))
	}
	require.True(t, c.enqueue(frame{kind: framePing}))

	go c.writeLoop(func(error) {})

	assert.Eventually(t, func() bool {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		return len(tr.texts) == 3 && tr.pings == 1
	}, time.Second, 5*time.Millisecond)

	c.close()
	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Equal(t, [][]byte{[]byte("1"), []byte("2"), []byte("3")}, tr.texts)
	assert.True(t, tr.closed)
}
