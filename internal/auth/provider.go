package auth

import "context"

// Claims is the identity the billing subsystem trusts: a stable email plus
// the provider's user id. No authentication logic lives outside this package.
type Claims struct {
	UserID string
	Email  string
}

// Provider resolves a bearer credential to claims.
type Provider interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}
