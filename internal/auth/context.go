package auth

import "context"

type contextKey struct{}

// AuthContext carries the authenticated caller through a request.
type AuthContext struct {
	AccountID   int64
	IsSuperuser bool
	SessionKey  string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func AccountID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.AccountID
}

func IsSuperuser(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.IsSuperuser
}
