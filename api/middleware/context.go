package middleware

import (
	"context"

	"github.com/workoutbrothers/storefront-backend/pkg/auth"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxIdentity contextKey = "identity"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// IdentityFromContext returns the verified caller seeded by Auth.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	if ctx == nil {
		return auth.Identity{}, false
	}
	id, ok := ctx.Value(ctxIdentity).(auth.Identity)
	return id, ok
}

// WithIdentity injects a verified caller into the context.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxIdentity, id)
	ctx = context.WithValue(ctx, ctxUserID, id.UserID.String())
	return context.WithValue(ctx, ctxRole, string(id.Role))
}
