package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shingo/auth-api/internal/core/domain"
)

const permissionsCollection = "permissions"

type mongoPermission struct {
	ID       int64   `bson:"_id"`
	Resource string  `bson:"resource"`
	Level    int     `bson:"level"`
	UserIDs  []int64 `bson:"user_ids,omitempty"`
	RoleIDs  []int64 `bson:"role_ids,omitempty"`
}

// PermissionRepository persists permission records keyed by their
// (resource, level) natural key, with a unique index enforcing it.
type PermissionRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewPermissionRepository(db *mongo.Database) *PermissionRepository {
	return &PermissionRepository{db: db, coll: db.Collection(permissionsCollection)}
}

func (r *PermissionRepository) FindByResourceAndLevel(ctx context.Context, resource string, level domain.Level) (*domain.Permission, error) {
	var mp mongoPermission
	err := r.coll.FindOne(ctx, bson.M{"resource": resource, "level": int(level)}).Decode(&mp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPermissionNotFound
		}
		return nil, fmt.Errorf("find permission: %w", err)
	}
	return mp.toDomain(), nil
}

func (r *PermissionRepository) Create(ctx context.Context, perm *domain.Permission) (*domain.Permission, error) {
	id, err := nextSequence(ctx, r.db, permissionsCollection)
	if err != nil {
		return nil, err
	}

	doc := mongoPermission{
		ID:       id,
		Resource: perm.Resource,
		Level:    int(perm.Level),
		UserIDs:  perm.UserIDs,
		RoleIDs:  perm.RoleIDs,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		// Concurrent find-or-create lost the race on the natural key: the
		// record exists now, return it.
		if mongo.IsDuplicateKeyError(err) {
			return r.FindByResourceAndLevel(ctx, perm.Resource, perm.Level)
		}
		return nil, fmt.Errorf("insert permission: %w", err)
	}

	created := *perm
	created.ID = id
	return &created, nil
}

func (r *PermissionRepository) Save(ctx context.Context, perm *domain.Permission) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": perm.ID}, bson.M{"$set": bson.M{
		"user_ids": perm.UserIDs,
		"role_ids": perm.RoleIDs,
	}})
	if err != nil {
		return fmt.Errorf("save permission: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPermissionNotFound
	}
	return nil
}

func (r *PermissionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPermissionNotFound
	}
	return nil
}

// listForAccessors returns every permission held by the user directly or by
// any of the given roles. Used for principal hydration.
func (r *PermissionRepository) listForAccessors(ctx context.Context, userID int64, roleIDs []int64) ([]domain.Permission, error) {
	or := []bson.M{{"user_ids": userID}}
	if len(roleIDs) > 0 {
		or = append(or, bson.M{"role_ids": bson.M{"$in": roleIDs}})
	}

	cur, err := r.coll.Find(ctx, bson.M{"$or": or})
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Permission
	for cur.Next(ctx) {
		var mp mongoPermission
		if err := cur.Decode(&mp); err != nil {
			return nil, fmt.Errorf("decode permission: %w", err)
		}
		out = append(out, *mp.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return out, nil
}

func (mp *mongoPermission) toDomain() *domain.Permission {
	return &domain.Permission{
		ID:       mp.ID,
		Resource: mp.Resource,
		Level:    domain.Level(mp.Level),
		UserIDs:  mp.UserIDs,
		RoleIDs:  mp.RoleIDs,
	}
}
