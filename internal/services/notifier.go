package services

import (
	"github.com/google/uuid"
)

// Broadcaster pushes realtime events. *realtime.Controller implements it,
// including when nil.
type Broadcaster interface {
	BroadcastToUser(userID, eventType string, data any)
	BroadcastAll(eventType string, data any)
}

// Notifier announces committed mutations to the owning user's connections.
// With global set, every event is also sent to all authenticated clients.
type Notifier struct {
	broadcaster Broadcaster
	global      bool
}

func NewNotifier(b Broadcaster, global bool) *Notifier {
	return &Notifier{broadcaster: b, global: global}
}

func (n *Notifier) Emit(userID uuid.UUID, eventType string, data any) {
	if n == nil || n.broadcaster == nil {
		return
	}
	n.broadcaster.BroadcastToUser(userID.String(), eventType, data)
	if n.global {
		n.broadcaster.BroadcastAll(eventType, data)
	}
}
