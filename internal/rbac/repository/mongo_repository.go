package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements Store on MongoDB.
type MongoRepository struct {
	Principals    *mongo.Collection
	Roles         *mongo.Collection
	Permissions   *mongo.Collection
	ResourceTypes *mongo.Collection
	DataRecords   *mongo.Collection
	Products      *mongo.Collection
	Audit         *mongo.Collection
	Client        *mongo.Client
}

var _ Store = (*MongoRepository)(nil)

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		Principals:    db.Collection("principals"),
		Roles:         db.Collection("roles"),
		Permissions:   db.Collection("permissions"),
		ResourceTypes: db.Collection("resource_types"),
		DataRecords:   db.Collection("data_records"),
		Products:      db.Collection("products"),
		Audit:         db.Collection("audit_log"),
		Client:        db.Client(),
	}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	// 1. Principals: unique email
	_, err := r.Principals.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_principal_email"),
		},
		{
			Keys:    bson.D{{Key: "role_ids", Value: 1}},
			Options: options.Index().SetName("idx_principal_roles"),
		},
	})
	if err != nil {
		return err
	}

	// 2. Roles: case-insensitive unique name
	_, err = r.Roles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name_key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_role_name"),
	})
	if err != nil {
		return err
	}

	// 3. Permissions: (resource, action) unique system-wide
	_, err = r.Permissions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "resource", Value: 1}, {Key: "action", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_permission_resource_action"),
	})
	if err != nil {
		return err
	}

	// 4. Resource types: unique name among active types only
	_, err = r.ResourceTypes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name_key", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName("uniq_active_resource_type_name").
			SetPartialFilterExpression(bson.M{"is_active": true}),
	})
	if err != nil {
		return err
	}

	// 5. Data records by owning type
	_, err = r.DataRecords.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "model_name", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("idx_record_model"),
	})
	if err != nil {
		return err
	}

	// 6. Audit: newest first per operation
	_, err = r.Audit.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "operation", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_operation"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_created_at"),
		},
	})
	return err
}

func newID() string {
	return uuid.NewString()
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// findOne decodes a single document, mapping no-documents to ErrNotFound.
func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]*T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []*T{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
