package domain

import "fmt"

// Role is the ordered privilege level of a platform user.
// Higher values carry every capability of the lower ones.
type Role int

const (
	RoleRegular Role = iota
	RoleCashier
	RoleManager
	RoleSuperuser
)

var roleNames = map[Role]string{
	RoleRegular:   "regular",
	RoleCashier:   "cashier",
	RoleManager:   "manager",
	RoleSuperuser: "superuser",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// AtLeast reports whether r carries the capabilities of floor.
func (r Role) AtLeast(floor Role) bool { return r >= floor }

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole converts a role name to a Role.
func ParseRole(name string) (Role, error) {
	for r, n := range roleNames {
		if n == name {
			return r, nil
		}
	}
	return RoleRegular, fmt.Errorf("unknown role: %q", name)
}
