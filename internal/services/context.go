package services

import (
	"context"
	"errors"
	"net/http"

	fintrack_errors "github.com/MallamTeja/Fintrack/pkg/errors"

	"github.com/google/uuid"
)

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, fintrack_errors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, fintrack_errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, fintrack_errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, fintrack_errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fintrack_errors.ErrAlreadyExists), errors.Is(err, fintrack_errors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, fintrack_errors.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, fintrack_errors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type ctxKey string

var userIDKey ctxKey = "user_id"

func WithUserContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(userIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
