package repository

import (
	"context"
	"time"

	"catalog/internal/rbac/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateAuditEntry creates a new entry (append-only)
func (r *MongoRepository) CreateAuditEntry(ctx context.Context, entry *model.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := r.Audit.InsertOne(ctx, entry)
	return err
}

// FindAuditEntries finds entries with pagination and filtering, newest first
func (r *MongoRepository) FindAuditEntries(ctx context.Context, q model.AuditQuery) ([]*model.AuditEntry, int64, error) {
	filter := bson.M{}
	if q.Operation != "" {
		filter["operation"] = q.Operation
	}
	if q.RoleID != "" {
		filter["role_id"] = q.RoleID
	}
	if q.Resource != "" {
		filter["resource"] = q.Resource
	}

	total, err := r.Audit.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit))

	results, err := findAll[model.AuditEntry](ctx, r.Audit, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
