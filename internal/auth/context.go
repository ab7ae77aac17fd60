package auth

import "context"

type contextKey string

const claimsKey contextKey = "auth_claims"

// WithClaims returns ctx carrying the verified token claims.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func ClaimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}

// UserID is the resolved identity of the request, or "".
func UserID(ctx context.Context) string {
	c, _ := ClaimsFrom(ctx)
	return c.UserID
}
