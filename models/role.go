package models

// Role is the authorization level assigned to a dashboard user.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// DefaultRole is assigned when a profile is first created.
const DefaultRole = RoleViewer

var ValidRoles = []Role{RoleViewer, RoleEditor, RoleAdmin}

// roleRanks is fixed at startup. Ranks only need to be strictly increasing
// with privilege; gaps leave room for intermediate roles.
var roleRanks = map[Role]int{
	RoleViewer: 0,
	RoleEditor: 1,
	RoleAdmin:  3,
}

var rolePermissions = map[Role][]string{
	RoleViewer: {"articles:read", "profile:read"},
	RoleEditor: {"articles:read", "articles:create", "articles:update", "profile:read", "profile:update"},
	RoleAdmin:  {"*"},
}

// rank returns the role's hierarchy level. Unknown roles rank below every
// defined role so access checks against them always deny.
func (r Role) rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return -1
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// HasPermission reports whether the role grants the named permission.
// A role holding "*" grants everything. Unknown roles grant nothing.
func HasPermission(role Role, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == "*" || p == permission {
			return true
		}
	}
	return false
}

// HasRoleAccess reports whether role meets or exceeds required in the
// hierarchy. An unknown role never meets any defined requirement.
func HasRoleAccess(role, required Role) bool {
	return role.rank() >= required.rank() && role.Valid()
}
