package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{ name string }

var userIDKey = contextKey{name: "user_id"}

// WithUserID stores the authenticated user on the request context.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user, or false for anonymous
// requests such as verify and webhooks.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
