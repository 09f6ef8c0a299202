package auth

import "context"

type contextKey string

const ownerIDKey contextKey = "owner_id"

func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// OwnerID returns the authenticated user's id, or "" when unauthenticated.
func OwnerID(ctx context.Context) string {
	if val, ok := ctx.Value(ownerIDKey).(string); ok {
		return val
	}
	return ""
}
