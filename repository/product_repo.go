package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-storefront/models"
)

// ProductRepo is the MongoDB-backed product store used by the order flow
type ProductRepo struct {
	collection *mongo.Collection
}

func NewProductRepo(client *mongo.Client) *ProductRepo {
	return &ProductRepo{collection: client.Database("storefront").Collection("products")}
}

// FindActiveByIDs returns the active products among the given ids
func (r *ProductRepo) FindActiveByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"_id":       bson.M{"$in": ids},
		"is_active": true,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// DecrementStock lowers a product's stock by qty in a single atomic update,
// flooring at zero, and returns the new stock. The pipeline update avoids the
// read-modify-write race that concurrent payment confirmations would otherwise
// hit.
func (r *ProductRepo) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int64) (int64, error) {
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{{Key: "stock", Value: bson.D{
			{Key: "$max", Value: bson.A{
				0,
				bson.D{{Key: "$subtract", Value: bson.A{"$stock", qty}}},
			}},
		}}}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Product
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated)
	if err != nil {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}
	return updated.Stock, nil
}
