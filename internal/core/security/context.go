// Package security carries the acting user through the request chain.
package security

import "context"

type userIDKey struct{}

// WithUserID adds the acting user's id to context.
// Used by middleware after the bearer token has been validated.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetUserID returns the acting user's id, or "" when the request is anonymous.
//
// Usage in handlers:
//
//	actorID := security.GetUserID(ctx)
//	project, err := manager.SoftDelete(ctx, projectID, actorID)
func GetUserID(ctx context.Context) string {
	if uid, ok := ctx.Value(userIDKey{}).(string); ok {
		return uid
	}
	return ""
}
