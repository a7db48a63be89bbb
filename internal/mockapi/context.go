package mockapi

import "context"

func contextWithClaims(ctx context.Context, claims *sessionClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// claimsFrom returns the session claims requireAuth attached, or nil on
// routes that skipped it.
func claimsFrom(ctx context.Context) *sessionClaims {
	claims, _ := ctx.Value(claimsKey).(*sessionClaims)
	return claims
}
