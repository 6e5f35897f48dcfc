package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"go-storefront/models"
)

// CouponRepo is the MongoDB-backed coupon store used by the order flow
type CouponRepo struct {
	collection *mongo.Collection
}

func NewCouponRepo(client *mongo.Client) *CouponRepo {
	return &CouponRepo{collection: client.Database("storefront").Collection("coupons")}
}

// FindActiveByCode looks up an active coupon by its uppercase code. A missing
// coupon is not an error; the evaluator treats nil as "no discount".
func (r *CouponRepo) FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.collection.FindOne(ctx, bson.M{"code": code, "is_active": true}).Decode(&coupon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// IncrementUsage bumps the used count atomically
func (r *CouponRepo) IncrementUsage(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"used_count": 1}})
	return err
}
