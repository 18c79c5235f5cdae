package user

// Membership itself (registration, profiles, credentials) lives in an external
// service. This package only knows the roles that appear in token claims.

type Role string

const (
	RoleMember    Role = "member"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RoleLibrarian, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role may drive staff-side circulation
// operations (ready/pickup/return/fine handling, stock administration).
func (r Role) IsStaff() bool {
	return r == RoleLibrarian || r == RoleAdmin
}
