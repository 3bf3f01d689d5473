package shared

import (
	"context"
	"strings"
)

// Role is a recognized account role.
type Role string

const (
	// RoleAdmin grants administrative access.
	RoleAdmin Role = "ADMIN"
	// RoleUser grants regular access.
	RoleUser Role = "USER"
)

// KnownRole reports whether the name maps to a recognized role.
func KnownRole(name string) bool {
	switch Role(strings.ToUpper(strings.TrimSpace(name))) {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

// Principal is the authenticated identity attached to a request. It lives
// for the duration of a single request and is discarded afterwards.
type Principal struct {
	Subject       string
	Roles         []Role
	Authenticated bool
}

// HasRole reports whether the principal carries the given role.
func (p *Principal) HasRole(role Role) bool {
	if p == nil || !p.Authenticated {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RolesFromClaim splits the comma-joined role claim into roles, dropping
// anything unrecognized.
func RolesFromClaim(claim string) []Role {
	parts := strings.Split(claim, ",")
	roles := make([]Role, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" || !KnownRole(p) {
			continue
		}
		roles = append(roles, Role(p))
	}
	return roles
}

// RoleClaim joins roles into the single comma-separated token claim.
func RoleClaim(roles []Role) string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return strings.Join(names, ",")
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, or nil when the
// request is unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
