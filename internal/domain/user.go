package domain

// Role represents an API caller's permission level.
type Role string

// Roles.
const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleOperator:
		return 2
	case RoleViewer:
		return 1
	}
	return 0
}

// HasPermission reports whether the role satisfies the minimum required role.
func (r Role) HasPermission(min Role) bool {
	return r.rank() >= min.rank()
}

// Operator is a configured dashboard operator account. Credentials come from
// configuration; there is no user database.
type Operator struct {
	Email        string
	PasswordHash string
	Role         Role
}
