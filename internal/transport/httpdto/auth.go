package httpdto

import (
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain/user"
)

// RegisterRequest is used for POST /api/auth/register
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is used for POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// PreferencesRequest is used for PUT /api/auth/preferences. Omitted fields
// keep their current value.
type PreferencesRequest struct {
	Theme         *string `json:"theme,omitempty"`
	Currency      *string `json:"currency,omitempty"`
	Notifications *bool   `json:"notifications,omitempty"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at"`
	User      UserDTO `json:"user"`
}

func NewAuthResponse(token string, expiresAt time.Time, u user.User) AuthResponse {
	return AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		User:      NewUserDTO(u),
	}
}
