// Package model holds the value types exchanged with the upstream
// meeting-management API. The API owns all of this data; these types are
// transient view copies and carry no persistence logic.
package model

import "slices"

// Role names as reported by the upstream /auth/me endpoint.
const (
	RoleAdminMain  = "admin_main"
	RoleAdminGroup = "admin_group"
	RoleUser       = "user"
)

// User is the authenticated user's profile as returned by the upstream API.
type User struct {
	ID         int64    `json:"user_id"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Fullname   string   `json:"fullname"`
	Department string   `json:"department"`
	Roles      []string `json:"roles"`
}

// HasRole reports whether the user holds the named role.
// A nil user holds no roles.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Roles, role)
}

// HasAnyRole reports whether the user holds at least one of the named roles.
// This is the "any of" check used by role-restricted routes: a single match
// is sufficient.
func (u *User) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user is a main administrator.
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdminMain)
}

// IsGroupAdmin reports whether the user is a group administrator.
func (u *User) IsGroupAdmin() bool {
	return u.HasRole(RoleAdminGroup)
}

// CanManageMeetings reports whether the user may create, close, or delete
// meetings. Both admin tiers qualify.
func (u *User) CanManageMeetings() bool {
	return u.HasAnyRole(RoleAdminMain, RoleAdminGroup)
}
