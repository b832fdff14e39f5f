package domain

import "context"

// Role represents a caller's access level
type Role string

const (
	// RoleAdmin can run bankruptcy rounds, list stocks and open accounts
	RoleAdmin Role = "admin"

	// RoleTrader can place, accept and cancel offers for its own account
	RoleTrader Role = "trader"
)

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleTrader
}

// CanAdminister checks if the role can run administrative operations
func (r Role) CanAdminister() bool {
	return r == RoleAdmin
}

// Caller is the authenticated identity supplied by the presentation layer.
type Caller struct {
	AccountID string
	Role      Role
}

type callerKey struct{}

// WithCaller stores the caller in ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the caller stored by WithCaller.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}
