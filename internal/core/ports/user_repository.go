package ports

import (
	"context"
	"time"

	"github.com/shingo/auth-api/internal/core/domain"
)

// UserRepository defines the interface for user persistence. Find methods
// return users hydrated with their direct permissions, their roles, and each
// role's permissions.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByExtID(ctx context.Context, extID string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// Patch applies a partial update. The caller is responsible for hashing
	// any new password before it reaches the repository.
	Patch(ctx context.Context, patch domain.UserPatch) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	AddRole(ctx context.Context, userID, roleID int64) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
	Delete(ctx context.Context, id int64) error
}
