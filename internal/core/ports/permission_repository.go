package ports

import (
	"context"

	"github.com/shingo/auth-api/internal/core/domain"
)

// PermissionRepository persists permission records and their accessor sets.
type PermissionRepository interface {
	// FindByResourceAndLevel looks a permission up by its natural key.
	// Returns domain.ErrPermissionNotFound when absent.
	FindByResourceAndLevel(ctx context.Context, resource string, level domain.Level) (*domain.Permission, error)
	Create(ctx context.Context, perm *domain.Permission) (*domain.Permission, error)
	// Save persists accessor-set changes on an existing permission.
	Save(ctx context.Context, perm *domain.Permission) error
	Delete(ctx context.Context, id int64) error
}

// RoleRepository persists roles.
type RoleRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Role, error)
	Create(ctx context.Context, role *domain.Role) (*domain.Role, error)
	Save(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id int64) error
}
