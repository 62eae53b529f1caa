package types

import "github.com/m-mizutani/goerr/v2"

// Role is the authorization role carried by an identity
type Role string

const (
	// RoleOperator may only see and modify actions they created or are assigned to
	RoleOperator Role = "operator"
	// RoleManager may see and modify every action in their tenant and site
	RoleManager Role = "manager"
)

// AllRoles returns all valid roles
func AllRoles() []Role {
	return []Role{RoleOperator, RoleManager}
}

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	return r == RoleOperator || r == RoleManager
}

// IsManager reports whether the role grants unrestricted access within a site
func (r Role) IsManager() bool {
	return r == RoleManager
}

func (r Role) String() string {
	return string(r)
}

// ParseRole parses a string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", goerr.New("invalid role", goerr.V("role", s))
	}
	return r, nil
}
