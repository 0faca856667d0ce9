package auth

import (
	"context"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/enums"
)

type contextKey struct{}

// Identity is the authenticated caller as carried through request
// contexts.
type Identity struct {
	UserID int64
	Role   enums.Role
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(Identity)
	return identity, ok
}
