package repository

import (
	"context"
	"time"

	"catalog/internal/rbac/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoRepository) CreateRecord(ctx context.Context, rec *model.DataRecord) error {
	if rec.ID == "" {
		rec.ID = newID()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := r.DataRecords.InsertOne(ctx, rec)
	return mapWriteErr(err)
}

func (r *MongoRepository) GetRecord(ctx context.Context, modelName, id string) (*model.DataRecord, error) {
	return findOne[model.DataRecord](ctx, r.DataRecords, bson.M{"_id": id, "model_name": modelName})
}

func (r *MongoRepository) ListRecords(ctx context.Context, modelName string, skip, limit int64) ([]*model.DataRecord, int64, error) {
	filter := bson.M{"model_name": modelName}

	total, err := r.DataRecords.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	results, err := findAll[model.DataRecord](ctx, r.DataRecords, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *MongoRepository) UpdateRecord(ctx context.Context, rec *model.DataRecord) error {
	rec.UpdatedAt = time.Now()
	res, err := r.DataRecords.UpdateOne(ctx,
		bson.M{"_id": rec.ID, "model_name": rec.ModelName},
		bson.M{"$set": bson.M{"data": rec.Data, "updated_at": rec.UpdatedAt}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteRecord(ctx context.Context, modelName, id string) error {
	res, err := r.DataRecords.DeleteOne(ctx, bson.M{"_id": id, "model_name": modelName})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) RenameModel(ctx context.Context, oldName, newName string) (int64, error) {
	res, err := r.DataRecords.UpdateMany(ctx,
		bson.M{"model_name": oldName},
		bson.M{"$set": bson.M{"model_name": newName, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
