package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain"
	"github.com/MallamTeja/Fintrack/internal/domain/user"
	"github.com/MallamTeja/Fintrack/internal/repository"
	"github.com/MallamTeja/Fintrack/internal/token"
	fintrack_errors "github.com/MallamTeja/Fintrack/pkg/errors"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// ProfileCache is an optional read-through cache for GET /auth/me.
type ProfileCache interface {
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
	Set(ctx context.Context, u user.User) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

type AuthService struct {
	users  repository.UserRepository
	tokens *token.Manager
	cache  ProfileCache
	notify *Notifier
	clock  clockwork.Clock
	log    *zap.Logger
}

type AuthOption func(*AuthService)

func WithProfileCache(c ProfileCache) AuthOption {
	return func(s *AuthService) { s.cache = c }
}

func WithAuthClock(c clockwork.Clock) AuthOption {
	return func(s *AuthService) { s.clock = c }
}

func NewAuthService(users repository.UserRepository, tokens *token.Manager, notify *Notifier, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:  users,
		tokens: tokens,
		notify: notify,
		clock:  clockwork.NewRealClock(),
		log:    zap.L().With(zap.String("component", "auth")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// PreferencesInput carries a partial update; nil fields are left unchanged.
type PreferencesInput struct {
	Theme         *string
	Currency      *string
	Notifications *bool
}

type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      user.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return AuthResult{}, fintrack_errors.Invalid("Please provide all required fields")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return AuthResult{}, fintrack_errors.Invalid("Please enter a valid email")
	}
	if len(in.Password) < minPasswordLength {
		return AuthResult{}, fintrack_errors.Invalid("Password must be at least 6 characters long")
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return AuthResult{}, fmt.Errorf("user already exists with this email: %w", fintrack_errors.ErrAlreadyExists)
	} else if !errors.Is(err, fintrack_errors.ErrNotFound) {
		return AuthResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, err
	}

	now := s.clock.Now()
	u := &user.User{
		ID:            uuid.New(),
		Name:          in.Name,
		Email:         in.Email,
		PasswordHash:  string(hash),
		Balance:       decimal.Zero,
		Preferences:   user.DefaultPreferences(),
		LastLoginTime: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, fintrack_errors.ErrAlreadyExists) {
			return AuthResult{}, fmt.Errorf("email already in use: %w", err)
		}
		return AuthResult{}, err
	}

	s.log.Info("user registered", zap.String("user_id", u.ID.String()))
	return s.issue(*u)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return AuthResult{}, fintrack_errors.Invalid("Please provide both email and password")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, fintrack_errors.ErrNotFound) {
		return AuthResult{}, fmt.Errorf("invalid credentials: %w", fintrack_errors.ErrUnauthorized)
	}
	if err != nil {
		return AuthResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return AuthResult{}, fmt.Errorf("invalid credentials: %w", fintrack_errors.ErrUnauthorized)
	}

	u.LastLoginTime = s.clock.Now()
	if err := s.users.TouchLastLogin(ctx, u.ID, u.LastLoginTime); err != nil {
		return AuthResult{}, err
	}
	s.invalidate(ctx, u.ID)
	return s.issue(u)
}

// Logout is stateless: tokens stay valid until they expire. Only the cached
// profile is dropped.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	s.invalidate(ctx, userID)
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (user.User, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.log.Warn("profile cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
		if cached != nil {
			return *cached, nil
		}
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, u); err != nil {
			s.log.Warn("profile cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	return u, nil
}

func (s *AuthService) UpdatePreferences(ctx context.Context, userID uuid.UUID, in PreferencesInput) (user.Preferences, error) {
	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return user.Preferences{}, err
	}

	prefs := current.Preferences
	if in.Theme != nil && *in.Theme != "" {
		theme := domain.Theme(strings.ToLower(*in.Theme))
		if !theme.Valid() {
			return user.Preferences{}, fintrack_errors.Invalid("Theme must be light or dark")
		}
		prefs.Theme = theme
	}
	if in.Currency != nil && *in.Currency != "" {
		currency := strings.ToUpper(strings.TrimSpace(*in.Currency))
		if len(currency) != 3 {
			return user.Preferences{}, fintrack_errors.Invalid("Currency must be a 3-letter code")
		}
		prefs.Currency = currency
	}
	if in.Notifications != nil {
		prefs.Notifications = *in.Notifications
	}

	updated, err := s.users.UpdatePreferences(ctx, userID, prefs)
	if err != nil {
		return user.Preferences{}, err
	}
	s.invalidate(ctx, userID)
	s.notify.Emit(userID, domain.EventPreferencesUpdated, updated.Preferences)
	return updated.Preferences, nil
}

// Authenticate resolves a bearer token to a user id.
func (s *AuthService) Authenticate(tokenString string) (uuid.UUID, error) {
	subject, err := s.tokens.Verify(tokenString)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", err.Error(), fintrack_errors.ErrUnauthorized)
	}
	id, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token: %w", fintrack_errors.ErrUnauthorized)
	}
	return id, nil
}

func (s *AuthService) issue(u user.User) (AuthResult, error) {
	signed, expiresAt, err := s.tokens.Issue(u.ID.String())
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: signed, ExpiresAt: expiresAt, User: u}, nil
}

func (s *AuthService) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn("profile cache invalidation failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
