package users

import (
	"time"

	"github.com/meridianhq/meridian/internal/shared"
)

// Account represents a registered user account. CurrentToken is the single
// revocation slot: the only token accepted for the account, empty when the
// account is logged out.
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	PhoneNumber  string
	Age          int
	City         string
	Roles        []shared.Role
	CurrentToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the account carries the role.
func (a *Account) HasRole(role shared.Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// MergeRoles unions new roles into the account, preserving order and
// skipping duplicates.
func (a *Account) MergeRoles(roles []shared.Role) {
	for _, r := range roles {
		if !a.HasRole(r) {
			a.Roles = append(a.Roles, r)
		}
	}
}
