package entity

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

type Permission string

const (
	PermAccessAdminPanel Permission = "canAccessAdminPanel"
	PermManageDatabase   Permission = "canManageDatabase"
	PermViewSystemInfo   Permission = "canViewSystemInfo"
	PermModerateContent  Permission = "canModerateContent"
	PermManageUsers      Permission = "canManageUsers"
)

var rolePermissions = map[Role]map[Permission]bool{
	RoleUser: {},
	RoleModerator: {
		PermAccessAdminPanel: true,
		PermViewSystemInfo:   true,
		PermModerateContent:  true,
	},
	RoleAdmin: {
		PermAccessAdminPanel: true,
		PermManageDatabase:   true,
		PermViewSystemInfo:   true,
		PermModerateContent:  true,
		PermManageUsers:      true,
	},
}

// ParseRole maps unknown or empty roles to RoleUser.
func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleModerator, RoleAdmin:
		return r
	}
	return RoleUser
}

func (r Role) Can(p Permission) bool {
	return rolePermissions[r][p]
}
