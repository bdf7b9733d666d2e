package domain

import "time"

// Level is the ordered access level attached to a permission.
// A permission satisfies a request when its level is >= the requested level,
// so a Deny entry never satisfies a Read or Write request.
type Level int

const (
	LevelDeny  Level = 0
	LevelRead  Level = 1
	LevelWrite Level = 2
)

func (l Level) String() string {
	switch l {
	case LevelDeny:
		return "deny"
	case LevelRead:
		return "read"
	case LevelWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= LevelDeny && l <= LevelWrite
}

// User models a principal that can authenticate and hold permissions,
// either directly or through role membership.
type User struct {
	ID             int64        `json:"id"`
	ExtID          string       `json:"ext_id,omitempty"`
	Email          string       `json:"email"`
	PasswordDigest string       `json:"-"`
	Services       []string     `json:"services,omitempty"`
	IsEnabled      bool         `json:"is_enabled"`
	LastLogin      time.Time    `json:"last_login,omitempty"`
	Roles          []Role       `json:"roles,omitempty"`
	Permissions    []Permission `json:"permissions,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// EffectivePermissions returns the union of the user's direct permissions and
// the permissions of every role the user belongs to.
func (u *User) EffectivePermissions() []Permission {
	perms := make([]Permission, 0, len(u.Permissions))
	perms = append(perms, u.Permissions...)
	for _, r := range u.Roles {
		perms = append(perms, r.Permissions...)
	}
	return perms
}

// HasRoleNamed reports whether the user belongs to a role with the given name.
func (u *User) HasRoleNamed(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Role groups permissions and is scoped to the consuming service.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Service     string       `json:"service"`
	Permissions []Permission `json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission names a protected resource at a specific access level.
// (Resource, Level) is the natural key: a permission record is never
// duplicated for the same pair, callers look up before creating.
type Permission struct {
	ID       int64   `json:"id"`
	Resource string  `json:"resource"`
	Level    Level   `json:"level"`
	UserIDs  []int64 `json:"user_ids,omitempty"`
	RoleIDs  []int64 `json:"role_ids,omitempty"`
}

// HasUser reports whether the user id holds this permission directly.
func (p *Permission) HasUser(id int64) bool {
	for _, u := range p.UserIDs {
		if u == id {
			return true
		}
	}
	return false
}

// HasRole reports whether the role id holds this permission.
func (p *Permission) HasRole(id int64) bool {
	for _, r := range p.RoleIDs {
		if r == id {
			return true
		}
	}
	return false
}
