// Package token issues and verifies the signed, time-limited access tokens
// shared by the REST API and the realtime handshake.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure classes. Each has a message the client can show.
var (
	ErrMissing   = errors.New("No token provided")
	ErrMalformed = errors.New("Malformed token")
	ErrExpired   = errors.New("Token expired")
	ErrInvalid   = errors.New("Invalid token")
)

// Claims carries the subject under "sub" and mirrors it under "userId" for
// browser clients. Tokens minted by older backends nested the id as
// user.id or used a bare "id"; those are still accepted.
type Claims struct {
	UserID   string     `json:"userId,omitempty"`
	LegacyID string     `json:"id,omitempty"`
	User     *userClaim `json:"user,omitempty"`
	jwt.RegisteredClaims
}

type userClaim struct {
	ID string `json:"id"`
}

// ResolveUserID returns the user id from whichever claim carries it.
func (c *Claims) ResolveUserID() string {
	switch {
	case c.UserID != "":
		return c.UserID
	case c.User != nil && c.User.ID != "":
		return c.User.ID
	case c.LegacyID != "":
		return c.LegacyID
	default:
		return c.RegisteredClaims.Subject
	}
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs an HS256 token for userID that expires after the manager's TTL.
func (m *Manager) Issue(userID string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the subject. Errors are
// always one of ErrMissing, ErrMalformed, ErrExpired or ErrInvalid.
func (m *Manager) Verify(tokenString string) (string, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return "", ErrMissing
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", ErrInvalid
	}

	subject := claims.ResolveUserID()
	if subject == "" {
		return "", ErrInvalid
	}
	return subject, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrInvalid
	}
}
