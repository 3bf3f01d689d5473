package auth

import (
	"net/http"

	"github.com/meridianhq/meridian/internal/platform/httpx"
	"github.com/meridianhq/meridian/internal/shared"
)

// AccessRequirement is the declarative rule attached to a route at
// registration time: public, any authenticated role, or a specific set.
type AccessRequirement struct {
	public  bool
	allowed []shared.Role
}

// Public allows unauthenticated access.
func Public() AccessRequirement {
	return AccessRequirement{public: true}
}

// Authenticated requires any recognized role.
func Authenticated() AccessRequirement {
	return AccessRequirement{allowed: []shared.Role{shared.RoleAdmin, shared.RoleUser}}
}

// RequireRoles requires at least one of the given roles.
func RequireRoles(roles ...shared.Role) AccessRequirement {
	return AccessRequirement{allowed: roles}
}

// Allows evaluates the requirement against the request principal.
func (a AccessRequirement) Allows(p *shared.Principal) error {
	if a.public {
		return nil
	}
	if p == nil || !p.Authenticated {
		return shared.ErrUnauthorized
	}
	for _, role := range a.allowed {
		if p.HasRole(role) {
			return nil
		}
	}
	return shared.ErrForbidden
}

// Require builds middleware enforcing the requirement. It assumes the gate
// already ran and attached any principal.
func Require(req AccessRequirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := req.Allows(shared.PrincipalFromContext(r.Context())); err != nil {
				httpx.RespondError(w, err, r.URL.Path)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
