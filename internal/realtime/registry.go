package realtime

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotRegistered = errors.New("connection not registered")
	ErrEmptyIdentity = errors.New("empty user id")
)

// Registry indexes live connections by id and by bound user.
//
// Every connection in byUser is also in conns, and a connection sits in at
// most one user's set. Registry has no lock: the hub loop is its only caller.
type Registry struct {
	conns  map[uuid.UUID]*Conn
	byUser map[string]map[uuid.UUID]*Conn
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[uuid.UUID]*Conn),
		byUser: make(map[string]map[uuid.UUID]*Conn),
	}
}

// Register adds c to the primary index.
func (r *Registry) Register(c *Conn) {
	r.conns[c.ID] = c
}

// Bind moves a registered connection under userID. Rebinding to the same
// user is a no-op; rebinding to another user moves it.
func (r *Registry) Bind(id uuid.UUID, userID string) error {
	if userID == "" {
		return ErrEmptyIdentity
	}
	c, ok := r.conns[id]
	if !ok {
		return ErrNotRegistered
	}
	if c.userID == userID {
		return nil
	}
	if c.userID != "" {
		r.unbind(c)
	}

	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[uuid.UUID]*Conn)
		r.byUser[userID] = set
	}
	set[id] = c
	c.userID = userID
	return nil
}

// Unregister removes id from both indexes. Removing an absent connection is
// a no-op and reports false.
func (r *Registry) Unregister(id uuid.UUID) (*Conn, bool) {
	c, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	delete(r.conns, id)
	if c.userID != "" {
		r.unbind(c)
	}
	return c, true
}

func (r *Registry) unbind(c *Conn) {
	if set, ok := r.byUser[c.userID]; ok {
		delete(set, c.ID)
		if len(set) == 0 {
			delete(r.byUser, c.userID)
		}
	}
	c.userID = ""
}

func (r *Registry) Lookup(id uuid.UUID) (*Conn, bool) {
	c, ok := r.conns[id]
	return c, ok
}

// ConnectionsFor returns a snapshot of the connections bound to userID.
func (r *Registry) ConnectionsFor(userID string) []*Conn {
	set := r.byUser[userID]
	out := make([]*Conn, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

// All returns a snapshot of every registered connection. Callers may
// mutate the registry while iterating it.
func (r *Registry) All() []*Conn {
	out := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.conns)
}

// AuthenticatedLen counts connections bound to some user.
func (r *Registry) AuthenticatedLen() int {
	n := 0
	for _, set := range r.byUser {
		n += len(set)
	}
	return n
}

func (r *Registry) UserCount() int {
	return len(r.byUser)
}

// Clear empties both indexes and returns what was registered.
func (r *Registry) Clear() []*Conn {
	all := r.All()
	for _, c := range all {
		c.userID = ""
	}
	r.conns = make(map[uuid.UUID]*Conn)
	r.byUser = make(map[string]map[uuid.UUID]*Conn)
	return all
}
