package ports

import (
	"context"

	"github.com/shingo/auth-api/internal/core/domain"
	"github.com/shingo/auth-api/internal/core/token"
)

// AuthService is the façade coordinating credential verification, token
// issuance, and authorization decisions.
type AuthService interface {
	Login(ctx context.Context, creds domain.Credentials) (string, error)
	IsValid(ctx context.Context, tok string) (*token.SessionClaims, error)
	CanAccess(ctx context.Context, req domain.AccessRequest) (bool, error)
	GrantToUser(ctx context.Context, req domain.GrantRequest) (domain.PermissionSet, error)
	GrantToRole(ctx context.Context, req domain.GrantRequest) (domain.PermissionSet, error)
	RevokeFromUser(ctx context.Context, req domain.GrantRequest) (domain.PermissionSet, error)
	RevokeFromRole(ctx context.Context, req domain.GrantRequest) (domain.PermissionSet, error)
	GenerateResetToken(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, tok, newPassword string) (string, error)
	LoginAs(ctx context.Context, req domain.LoginAsRequest) (string, error)
}

// UserService manages user records.
type UserService interface {
	Create(ctx context.Context, email, password, extID string, services []string) (*domain.User, error)
	Update(ctx context.Context, patch domain.UserPatch) error
	Delete(ctx context.Context, id int64) error
	AddRole(ctx context.Context, op domain.RoleOperation) error
	RemoveRole(ctx context.Context, op domain.RoleOperation) error
}

// RoleService manages role records.
type RoleService interface {
	Create(ctx context.Context, name, service string) (*domain.Role, error)
	Delete(ctx context.Context, id int64) error
}
