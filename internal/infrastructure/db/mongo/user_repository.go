package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shingo/auth-api/internal/core/domain"
)

const usersCollection = "users"

type mongoUser struct {
	ID        int64    `bson:"_id"`
	ExtID     string   `bson:"ext_id,omitempty"`
	Email     string   `bson:"email"`
	Password  string   `bson:"password"`
	Services  []string `bson:"services,omitempty"`
	IsEnabled bool     `bson:"is_enabled"`
	LastLogin int64    `bson:"last_login,omitempty"`
	RoleIDs   []int64  `bson:"role_ids,omitempty"`
	CreatedAt int64    `bson:"created_at"`
	UpdatedAt int64    `bson:"updated_at"`
}

// UserRepository persists users and hydrates them with their roles, direct
// permissions, and role-inherited permissions on every find.
type UserRepository struct {
	db    *mongo.Database
	coll  *mongo.Collection
	roles *RoleRepository
	perms *PermissionRepository
}

func NewUserRepository(db *mongo.Database, roles *RoleRepository, perms *PermissionRepository) *UserRepository {
	return &UserRepository{db: db, coll: db.Collection(usersCollection), roles: roles, perms: perms}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByExtID(ctx context.Context, extID string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"ext_id": extID})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return r.hydrate(ctx, &mu)
}

// hydrate assembles the domain user: role records for the user's role_ids,
// plus every permission whose accessor sets reference the user or one of its
// roles, split into direct grants and per-role grants.
func (r *UserRepository) hydrate(ctx context.Context, mu *mongoUser) (*domain.User, error) {
	user := &domain.User{
		ID:             mu.ID,
		ExtID:          mu.ExtID,
		Email:          mu.Email,
		PasswordDigest: mu.Password,
		Services:       mu.Services,
		IsEnabled:      mu.IsEnabled,
		LastLogin:      unixToTime(mu.LastLogin),
		CreatedAt:      unixToTime(mu.CreatedAt),
		UpdatedAt:      unixToTime(mu.UpdatedAt),
	}

	perms, err := r.perms.listForAccessors(ctx, mu.ID, mu.RoleIDs)
	if err != nil {
		return nil, err
	}

	byRole := make(map[int64][]domain.Permission)
	for _, p := range perms {
		if p.HasUser(mu.ID) {
			user.Permissions = append(user.Permissions, p)
		}
		for _, roleID := range mu.RoleIDs {
			if p.HasRole(roleID) {
				byRole[roleID] = append(byRole[roleID], p)
			}
		}
	}

	for _, roleID := range mu.RoleIDs {
		role, err := r.roles.FindByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, domain.ErrRoleNotFound) {
				// Dangling membership; skip rather than fail the lookup.
				continue
			}
			return nil, err
		}
		role.Permissions = byRole[roleID]
		user.Roles = append(user.Roles, *role)
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	id, err := nextSequence(ctx, r.db, usersCollection)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := mongoUser{
		ID:        id,
		ExtID:     user.ExtID,
		Email:     user.Email,
		Password:  user.PasswordDigest,
		Services:  user.Services,
		IsEnabled: user.IsEnabled,
		CreatedAt: now.Unix(),
		UpdatedAt: now.Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

func (r *UserRepository) Patch(ctx context.Context, patch domain.UserPatch) error {
	filter := bson.M{"_id": patch.ID}
	if patch.ID == 0 {
		filter = bson.M{"ext_id": patch.ExtID}
	}

	set := bson.M{"updated_at": time.Now().UTC().Unix()}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Password != nil {
		set["password"] = *patch.Password
	}
	if patch.Services != nil {
		set["services"] = patch.Services
	}
	if patch.IsEnabled != nil {
		set["is_enabled"] = *patch.IsEnabled
	}

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("patch user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"last_login": at.Unix(),
		"updated_at": at.Unix(),
	}})
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) AddRole(ctx context.Context, userID, roleID int64) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$addToSet": bson.M{"role_ids": roleID},
	})
	if err != nil {
		return fmt.Errorf("add role: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) RemoveRole(ctx context.Context, userID, roleID int64) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$pull": bson.M{"role_ids": roleID},
	})
	if err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
