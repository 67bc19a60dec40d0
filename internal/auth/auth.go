// Package auth carries the caller's identity and granted capabilities
// through boundary calls. The core never reads it; only the HTTP
// handlers enforce it.
package auth

import "context"

type Role string

const (
	RoleCashier Role = "cashier"
	RoleManager Role = "manager"
)

type Capability string

const (
	CapProcessSale   Capability = "sales:process"
	CapQuerySales    Capability = "sales:query"
	CapManageCatalog Capability = "catalog:manage"
)

// Principal is a resolved caller identity.
type Principal struct {
	ID       int64
	Username string
	Role     Role
}

// Can reports whether the role grants a capability. A manager can do
// everything a cashier can, not vice versa.
func (r Role) Can(c Capability) bool {
	switch r {
	case RoleManager:
		return true
	case RoleCashier:
		return c == CapProcessSale || c == CapQuerySales
	default:
		return false
	}
}

type contextKey struct{}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored in ctx, or nil.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKey{}).(*Principal)
	return p
}

// Resolver maps an opaque bearer token to a principal. Returns
// (nil, nil) for an unknown token.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Principal, error)
}
