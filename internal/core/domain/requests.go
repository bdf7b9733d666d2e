package domain

// AccessorKind selects which accessor set of a permission a grant or revoke
// operates on.
type AccessorKind string

const (
	AccessorUser AccessorKind = "user"
	AccessorRole AccessorKind = "role"
)

// Credentials carries a login attempt.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Services string `json:"services,omitempty"`
}

// AccessRequest asks whether the user identified by Email may act on
// Resource at the given Level.
type AccessRequest struct {
	Resource string `json:"resource"`
	Level    Level  `json:"level"`
	Email    string `json:"email"`
}

// GrantRequest attaches or detaches a (resource, level) permission to the
// accessor identified by AccessorID.
type GrantRequest struct {
	Resource   string `json:"resource"`
	Level      Level  `json:"level"`
	AccessorID int64  `json:"accessor_id"`
}

// PermissionSet identifies the permission/accessor pair affected by a grant
// or revoke.
type PermissionSet struct {
	PermissionID int64 `json:"permission_id"`
	AccessorID   int64 `json:"accessor_id"`
}

// LoginAsRequest lets an admin obtain a session token for another user.
type LoginAsRequest struct {
	AdminID int64 `json:"admin_id"`
	UserID  int64 `json:"user_id"`
}

// RoleOperation adds or removes a role for the user identified by email.
type RoleOperation struct {
	UserEmail string `json:"user_email"`
	RoleID    int64  `json:"role_id"`
}

// UserPatch is a partial user update. Nil fields are left untouched.
// At least one of ID or ExtID must identify the user.
type UserPatch struct {
	ID        int64
	ExtID     string
	Email     *string
	Password  *string
	Services  []string
	IsEnabled *bool
}
