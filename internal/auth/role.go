package auth

import "strings"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleStaff    Role = "STAFF"
	RoleCustomer Role = "CUSTOMER"
	RoleUnknown  Role = ""
)

// ParseRole is case-insensitive; anything unrecognised is RoleUnknown.
func ParseRole(value string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleStaff:
		return RoleStaff
	case RoleCustomer:
		return RoleCustomer
	default:
		return RoleUnknown
	}
}

// BackOffice reports whether the role may use the admin shell at all.
func (r Role) BackOffice() bool {
	return r == RoleAdmin || r == RoleStaff
}

func (r *Role) UnmarshalText(text []byte) error {
	*r = ParseRole(string(text))
	return nil
}

// Principal is the authenticated actor as returned by the login endpoint.
type Principal struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Role     Role   `json:"role"`
}
