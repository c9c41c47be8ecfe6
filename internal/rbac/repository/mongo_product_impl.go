package repository

import (
	"context"
	"time"

	"catalog/internal/rbac/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	if p.ID == "" {
		p.ID = newID()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.Products.InsertOne(ctx, p)
	return mapWriteErr(err)
}

func (r *MongoRepository) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return findOne[model.Product](ctx, r.Products, bson.M{"_id": id})
}

func (r *MongoRepository) ListProducts(ctx context.Context, skip, limit int64) ([]*model.Product, int64, error) {
	total, err := r.Products.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	results, err := findAll[model.Product](ctx, r.Products, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *MongoRepository) AllProducts(ctx context.Context) ([]*model.Product, error) {
	return findAll[model.Product](ctx, r.Products, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *MongoRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.Products.UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{"$set": bson.M{
			"name":       p.Name,
			"price":      p.Price,
			"image":      p.Image,
			"updated_at": p.UpdatedAt,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.Products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
