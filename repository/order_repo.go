package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"go-storefront/models"
)

// OrderRepo is the MongoDB-backed order store used by the order flow
type OrderRepo struct {
	collection *mongo.Collection
}

func NewOrderRepo(client *mongo.Client) *OrderRepo {
	return &OrderRepo{collection: client.Database("storefront").Collection("orders")}
}

// Insert persists a new order and returns its id
func (r *OrderRepo) Insert(ctx context.Context, order *models.Order) (primitive.ObjectID, error) {
	result, err := r.collection.InsertOne(ctx, order)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return result.InsertedID.(primitive.ObjectID), nil
}

// SetGatewayOrderID stores the remote gateway order id on a local order
func (r *OrderRepo) SetGatewayOrderID(ctx context.Context, id primitive.ObjectID, gatewayOrderID string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"razorpay_order_id": gatewayOrderID},
	})
	return err
}

// FindByIDForUser returns the order only if it belongs to the given user.
// A missing order yields (nil, nil).
func (r *OrderRepo) FindByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPaid transitions an order from pending_payment to paid, recording the
// payment details. The status filter makes this a compare-and-swap: only one
// of several concurrent verifications observes a modified document.
func (r *OrderRepo) MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID, signature string, paidAt time.Time) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.OrderStatusPendingPayment},
		bson.M{"$set": bson.M{
			"status":              models.OrderStatusPaid,
			"razorpay_payment_id": paymentID,
			"razorpay_signature":  signature,
			"paid_at":             paidAt,
		}},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}
