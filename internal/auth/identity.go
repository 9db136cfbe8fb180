// Package auth issues session tokens and carries the authenticated identity
// through request contexts.
package auth

import "context"

type contextKey struct{}

// Identity is who a request acts as.
type Identity struct {
	UserID    int64
	Username  string
	SessionID string
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
