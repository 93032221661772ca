package realtime

import (
	"encoding/json"
	"time"
)

// Inbound message types.
const (
	TypeAuth = "auth"
	TypePing = "ping"
)

// Outbound message types and auth statuses.
const (
	TypePong  = "pong"
	TypeError = "error"

	StatusSuccess = "success"
	StatusError   = "error"
)

// Protocol error replies.
const (
	msgInvalidFormat   = "Invalid message format"
	msgTypeRequired    = "Message type required"
	msgUnknownType     = "Unknown message type"
	msgNoToken         = "No token provided"
	msgAuthInProgress  = "Authentication in progress"
	msgAuthAlreadyBusy = "Authentication already in progress"
)

// timestampLayout matches JavaScript's Date.prototype.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Inbound is the envelope a client sends.
type Inbound struct {
	Type    string          `json:"type"`
	Token   string          `json:"token,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is what subscribers receive for every broadcast.
type Event struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NewEvent stamps an event with t in UTC.
func NewEvent(eventType string, data any, t time.Time) Event {
	return Event{
		Type:      eventType,
		Data:      data,
		Timestamp: t.UTC().Format(timestampLayout),
	}
}

type authReply struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type errorReply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type pongReply struct {
	Type string `json:"type"`
}

var (
	authSuccessFrame = mustMarshal(authReply{Type: TypeAuth, Status: StatusSuccess})
	pongFrame        = mustMarshal(pongReply{Type: TypePong})
)

func authErrorFrame(message string) []byte {
	return mustMarshal(authReply{Type: TypeAuth, Status: StatusError, Message: message})
}

func errorFrame(message string) []byte {
	return mustMarshal(errorReply{Type: TypeError, Message: message})
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
