package realtime

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MallamTeja/Fintrack/internal/token"
)

// AuthMode selects where a connection presents its credential.
type AuthMode string

const (
	// AuthModeHeader verifies a credential carried by the upgrade request and
	// closes the connection on failure.
	AuthModeHeader AuthMode = "header"
	// AuthModeMessage expects an {"type":"auth","token":...} message after
	// connect and keeps the connection open on failure.
	AuthModeMessage AuthMode = "message"
)

// Close reasons for header-mode rejection.
const (
	reasonAuthRequired = "Authentication required"
	reasonAuthFailed   = "Authentication failed"
)

func ParseAuthMode(s string) (AuthMode, error) {
	switch AuthMode(strings.ToLower(strings.TrimSpace(s))) {
	case AuthModeHeader:
		return AuthModeHeader, nil
	case AuthModeMessage, "":
		return AuthModeMessage, nil
	default:
		return "", fmt.Errorf("unknown websocket auth mode %q", s)
	}
}

var errMissingCredential = token.ErrMissing

// Verifier resolves a bearer credential to a user id. Errors should be one
// of the token package's failure classes so clients get a useful message.
type Verifier interface {
	Verify(token string) (string, error)
}

// rejectReason maps a header-mode verification failure to its close reason.
func rejectReason(err error) string {
	if errors.Is(err, token.ErrMissing) {
		return reasonAuthRequired
	}
	return reasonAuthFailed
}

// authMessage is the text sent back to the client for a failed in-band attempt.
func authMessage(err error) string {
	for _, known := range []error{token.ErrMissing, token.ErrMalformed, token.ErrExpired, token.ErrInvalid} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return token.ErrInvalid.Error()
}

// credentialFromRequest looks for a credential in Sec-WebSocket-Protocol,
// then the Authorization header, then the token query parameter. The
// second return value is the subprotocol to echo back, if any.
func credentialFromRequest(r *http.Request) (string, string) {
	if tok := protocolToken(websocketProtocols(r)); tok != "" {
		return tok, tok
	}

	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1]), ""
		}
	}

	return r.URL.Query().Get("token"), ""
}

func websocketProtocols(r *http.Request) []string {
	var out []string
	for _, v := range r.Header.Values("Sec-WebSocket-Protocol") {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// protocolToken picks the value after a token label, or the only value
// offered. Ordinary protocol names alongside other values are not tokens.
func protocolToken(offered []string) string {
	for i := 0; i+1 < len(offered); i++ {
		if isTokenLabel(offered[i]) {
			return offered[i+1]
		}
	}
	if len(offered) == 1 && !isTokenLabel(offered[0]) {
		return offered[0]
	}
	return ""
}

func isTokenLabel(s string) bool {
	switch strings.ToLower(s) {
	case "access_token", "bearer", "token":
		return true
	}
	return false
}
