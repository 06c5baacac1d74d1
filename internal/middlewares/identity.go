package middlewares

import (
	"context"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID int64
	Email  string
	Name   string
}

type identityKey struct{}

// setIdentityToContext stores the caller identity in the context
func setIdentityToContext(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentityFromContext returns the identity set by AuthMiddleware and whether one is present.
func GetIdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}
