// Package ctxkeys holds the typed context keys shared by middleware and handlers.
// Kept in a leaf package to avoid import cycles between api and api/handlers.
package ctxkeys

import "context"

// Key is the named type for all API context keys, so string keys set by
// other packages can never collide with ours.
type Key string

const (
	// Subject is the authenticated token subject, injected by AuthMiddleware.
	Subject Key = "subject"

	// Scope is the scope claim of the authenticated token.
	Scope Key = "scope"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// String returns the string stored under key, or "" if absent.
func String(ctx context.Context, key Key) string {
	v, _ := ctx.Value(key).(string)
	return v
}
