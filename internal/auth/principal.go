// Package auth composes the token codec, the session manager, and the
// account store into the login, logout, refresh, and request-gating flows.
package auth

import (
	"context"

	"edubook.org/internal/user"
)

// Principal is the authenticated identity attached to a request after the
// gate admits it.
type Principal struct {
	UserID       string
	Email        string
	Role         user.Role
	CollegeID    string
	AcademicYear int
	SessionID    string
}

type ctxKey int

const (
	principalKey ctxKey = iota
	tokenKey
)

// ContextWithPrincipal attaches an authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the principal set by the gate, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// ContextWithToken stashes the raw bearer token so logout can revoke the
// exact session it arrived on.
func ContextWithToken(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, tokenKey, raw)
}

// TokenFromContext retrieves the raw bearer token, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(tokenKey).(string)
	return raw, ok
}
