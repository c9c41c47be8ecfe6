package repository

import (
	"context"
	"time"

	"catalog/internal/rbac/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoRepository) CreateRole(ctx context.Context, role *model.Role) error {
	if role.ID == "" {
		role.ID = newID()
	}
	now := time.Now()
	role.CreatedAt = now
	role.UpdatedAt = now
	role.NameKey = nameKey(role.Name)
	role.PermissionIDs = emptyIfNil(role.PermissionIDs)

	_, err := r.Roles.InsertOne(ctx, role)
	return mapWriteErr(err)
}

func (r *MongoRepository) GetRole(ctx context.Context, id string) (*model.Role, error) {
	return findOne[model.Role](ctx, r.Roles, bson.M{"_id": id})
}

func (r *MongoRepository) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	return findOne[model.Role](ctx, r.Roles, bson.M{"name_key": nameKey(name)})
}

func (r *MongoRepository) GetRolesByIDs(ctx context.Context, ids []string) ([]*model.Role, error) {
	if len(ids) == 0 {
		return []*model.Role{}, nil
	}
	return findAll[model.Role](ctx, r.Roles, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *MongoRepository) ListRoles(ctx context.Context) ([]*model.Role, error) {
	return findAll[model.Role](ctx, r.Roles, bson.M{}, options.Find().SetSort(bson.D{{Key: "name_key", Value: 1}}))
}

func (r *MongoRepository) UpdateRole(ctx context.Context, role *model.Role) error {
	role.NameKey = nameKey(role.Name)
	role.UpdatedAt = time.Now()

	res, err := r.Roles.UpdateOne(ctx,
		bson.M{"_id": role.ID},
		bson.M{"$set": bson.M{
			"name":        role.Name,
			"name_key":    role.NameKey,
			"description": role.Description,
			"updated_at":  role.UpdatedAt,
		}},
	)
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteRole(ctx context.Context, id string) error {
	session, err := r.Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
		res, err := r.Roles.DeleteOne(sessCtx, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}
		if res.DeletedCount == 0 {
			return nil, ErrNotFound
		}
		_, err = r.Principals.UpdateMany(sessCtx,
			bson.M{"role_ids": id},
			bson.M{"$pull": bson.M{"role_ids": id}},
		)
		return nil, err
	}

	_, err = session.WithTransaction(ctx, callback)
	return err
}

func (r *MongoRepository) AddPermissionsToRole(ctx context.Context, roleID string, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	res, err := r.Roles.UpdateOne(ctx,
		bson.M{"_id": roleID},
		bson.M{
			"$addToSet": bson.M{"permission_ids": bson.M{"$each": permissionIDs}},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) RemovePermissionsFromRole(ctx context.Context, roleID string) error {
	res, err := r.Roles.UpdateOne(ctx,
		bson.M{"_id": roleID},
		bson.M{"$set": bson.M{"permission_ids": []string{}, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) ReplacePermissionInRoles(ctx context.Context, oldID, newID string) error {
	// two passes: $addToSet and $pull cannot target the same field in one update
	_, err := r.Roles.UpdateMany(ctx,
		bson.M{"permission_ids": oldID},
		bson.M{"$addToSet": bson.M{"permission_ids": newID}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	_, err = r.Roles.UpdateMany(ctx,
		bson.M{"permission_ids": oldID},
		bson.M{"$pull": bson.M{"permission_ids": oldID}},
	)
	return err
}
