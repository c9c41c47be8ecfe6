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

func (r *MongoRepository) CreatePermission(ctx context.Context, p *model.Permission) error {
	if p.ID == "" {
		p.ID = newID()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.Permissions.InsertOne(ctx, p)
	return mapWriteErr(err)
}

func (r *MongoRepository) FindOrCreatePermission(ctx context.Context, p *model.Permission) (*model.Permission, bool, error) {
	now := time.Now()
	id := p.ID
	if id == "" {
		id = newID()
	}

	filter := bson.M{"resource": p.Resource, "action": p.Action}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":         id,
			"resource":    p.Resource,
			"action":      p.Action,
			"description": p.Description,
			"created_at":  now,
			"updated_at":  now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out model.Permission
	err := r.Permissions.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// concurrent upsert won the race; the row exists now
		existing, getErr := r.GetPermissionByKey(ctx, p.Resource, p.Action)
		return existing, false, getErr
	}
	if err != nil {
		return nil, false, err
	}
	return &out, out.ID == id, nil
}

func (r *MongoRepository) GetPermission(ctx context.Context, id string) (*model.Permission, error) {
	return findOne[model.Permission](ctx, r.Permissions, bson.M{"_id": id})
}

func (r *MongoRepository) GetPermissionByKey(ctx context.Context, resource, action string) (*model.Permission, error) {
	return findOne[model.Permission](ctx, r.Permissions, bson.M{"resource": resource, "action": action})
}

func (r *MongoRepository) GetPermissionsByIDs(ctx context.Context, ids []string) ([]*model.Permission, error) {
	if len(ids) == 0 {
		return []*model.Permission{}, nil
	}
	return findAll[model.Permission](ctx, r.Permissions, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *MongoRepository) ListPermissions(ctx context.Context) ([]*model.Permission, error) {
	return findAll[model.Permission](ctx, r.Permissions, bson.M{},
		options.Find().SetSort(bson.D{{Key: "resource", Value: 1}, {Key: "action", Value: 1}}))
}

func (r *MongoRepository) ListPermissionsByResource(ctx context.Context, resource string) ([]*model.Permission, error) {
	return findAll[model.Permission](ctx, r.Permissions, bson.M{"resource": resource},
		options.Find().SetSort(bson.D{{Key: "action", Value: 1}}))
}

func (r *MongoRepository) UpdatePermission(ctx context.Context, p *model.Permission) error {
	p.UpdatedAt = time.Now()
	res, err := r.Permissions.UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{"$set": bson.M{
			"resource":    p.Resource,
			"action":      p.Action,
			"description": p.Description,
			"updated_at":  p.UpdatedAt,
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

func (r *MongoRepository) DeletePermission(ctx context.Context, id string) error {
	session, err := r.Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
		res, err := r.Permissions.DeleteOne(sessCtx, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}
		if res.DeletedCount == 0 {
			return nil, ErrNotFound
		}
		_, err = r.Roles.UpdateMany(sessCtx,
			bson.M{"permission_ids": id},
			bson.M{"$pull": bson.M{"permission_ids": id}},
		)
		return nil, err
	}

	_, err = session.WithTransaction(ctx, callback)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return err
}
