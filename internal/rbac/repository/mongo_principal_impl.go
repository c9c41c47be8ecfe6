package repository

import (
	"context"
	"time"

	"catalog/internal/rbac/model"

	"go.mongodb.org/mongo-driver/bson"
)

func (r *MongoRepository) CreatePrincipal(ctx context.Context, p *model.Principal) error {
	if p.ID == "" {
		p.ID = newID()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Email = nameKey(p.Email)
	p.RoleIDs = emptyIfNil(p.RoleIDs)

	_, err := r.Principals.InsertOne(ctx, p)
	return mapWriteErr(err)
}

func (r *MongoRepository) GetPrincipal(ctx context.Context, id string) (*model.Principal, error) {
	return findOne[model.Principal](ctx, r.Principals, bson.M{"_id": id})
}

func (r *MongoRepository) GetPrincipalByEmail(ctx context.Context, email string) (*model.Principal, error) {
	return findOne[model.Principal](ctx, r.Principals, bson.M{"email": nameKey(email)})
}

func (r *MongoRepository) ListPrincipalIDsByRole(ctx context.Context, roleID string) ([]string, error) {
	principals, err := findAll[model.Principal](ctx, r.Principals, bson.M{"role_ids": roleID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(principals))
	for _, p := range principals {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (r *MongoRepository) AddRoleToPrincipals(ctx context.Context, roleID string, principalIDs []string) ([]string, error) {
	if len(principalIDs) == 0 {
		return []string{}, nil
	}
	existing, err := findAll[model.Principal](ctx, r.Principals, bson.M{"_id": bson.M{"$in": principalIDs}})
	if err != nil {
		return nil, err
	}
	matched := make([]string, 0, len(existing))
	for _, p := range existing {
		matched = append(matched, p.ID)
	}
	if len(matched) == 0 {
		return matched, nil
	}

	_, err = r.Principals.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": matched}},
		bson.M{
			"$addToSet": bson.M{"role_ids": roleID},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return nil, err
	}
	return matched, nil
}

func (r *MongoRepository) RemoveRoleFromPrincipals(ctx context.Context, roleID string, principalIDs []string) error {
	if len(principalIDs) == 0 {
		return nil
	}
	_, err := r.Principals.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": principalIDs}},
		bson.M{
			"$pull": bson.M{"role_ids": roleID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return err
}
