package repository

import (
	"context"
	"errors"
	"time"

	"catalog/internal/rbac/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoRepository) CreateResourceType(ctx context.Context, t *model.ResourceType) error {
	if t.ID == "" {
		t.ID = newID()
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.NameKey = nameKey(t.Name)

	_, err := r.ResourceTypes.InsertOne(ctx, t)
	return mapWriteErr(err)
}

func (r *MongoRepository) GetResourceType(ctx context.Context, id string) (*model.ResourceType, error) {
	return findOne[model.ResourceType](ctx, r.ResourceTypes, bson.M{"_id": id})
}

func (r *MongoRepository) GetActiveResourceTypeByName(ctx context.Context, name string) (*model.ResourceType, error) {
	return findOne[model.ResourceType](ctx, r.ResourceTypes, bson.M{"name_key": nameKey(name), "is_active": true})
}

func (r *MongoRepository) ListResourceTypes(ctx context.Context, includeInactive bool) ([]*model.ResourceType, error) {
	filter := bson.M{"is_active": true}
	if includeInactive {
		filter = bson.M{}
	}
	return findAll[model.ResourceType](ctx, r.ResourceTypes, filter, options.Find().SetSort(bson.D{{Key: "name_key", Value: 1}}))
}

func (r *MongoRepository) UpdateResourceType(ctx context.Context, t *model.ResourceType) error {
	t.NameKey = nameKey(t.Name)
	t.UpdatedAt = time.Now()

	res, err := r.ResourceTypes.UpdateOne(ctx,
		bson.M{"_id": t.ID},
		bson.M{"$set": bson.M{
			"name":         t.Name,
			"name_key":     t.NameKey,
			"display_name": t.DisplayName,
			"fields":       t.Fields,
			"updated_at":   t.UpdatedAt,
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

// DeactivateResourceType runs the cascade in one transaction so no reader sees an active type without permissions.
func (r *MongoRepository) DeactivateResourceType(ctx context.Context, id string) (*DeactivateResult, error) {
	session, err := r.Client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
		var t model.ResourceType
		if err := r.ResourceTypes.FindOne(sessCtx, bson.M{"_id": id, "is_active": true}).Decode(&t); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrNotFound
			}
			return nil, err
		}

		// 1. Purge records of the type
		recRes, err := r.DataRecords.DeleteMany(sessCtx, bson.M{"model_name": t.Name})
		if err != nil {
			return nil, err
		}

		// 2. Purge permissions and detach them from roles
		perms, err := findAll[model.Permission](sessCtx, r.Permissions, bson.M{"resource": t.ResourceName()})
		if err != nil {
			return nil, err
		}
		permIDs := make([]string, 0, len(perms))
		for _, p := range perms {
			permIDs = append(permIDs, p.ID)
		}
		var permsDeleted int64
		if len(permIDs) > 0 {
			if _, err := r.Roles.UpdateMany(sessCtx,
				bson.M{"permission_ids": bson.M{"$in": permIDs}},
				bson.M{"$pull": bson.M{"permission_ids": bson.M{"$in": permIDs}}},
			); err != nil {
				return nil, err
			}
			permRes, err := r.Permissions.DeleteMany(sessCtx, bson.M{"_id": bson.M{"$in": permIDs}})
			if err != nil {
				return nil, err
			}
			permsDeleted = permRes.DeletedCount
		}

		// 3. Flip the active flag
		if _, err := r.ResourceTypes.UpdateOne(sessCtx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
		); err != nil {
			return nil, err
		}

		return &DeactivateResult{RecordsDeleted: recRes.DeletedCount, PermissionsDeleted: permsDeleted}, nil
	}

	out, err := session.WithTransaction(ctx, callback)
	if err != nil {
		return nil, err
	}
	return out.(*DeactivateResult), nil
}
