package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-storefront/models"
	"go-storefront/utils"
)

// Errors surfaced to the HTTP layer
var (
	ErrProductsUnavailable  = errors.New("some products are unavailable")
	ErrOrderNotFound        = errors.New("order not found")
	ErrGatewayOrderMismatch = errors.New("mismatched gateway order")
	ErrInvalidSignature     = errors.New("invalid payment signature")
)

// InsufficientStockError identifies the product that could not be fulfilled
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}

// ProductRepo is the product access the order flow needs
type ProductRepo interface {
	FindActiveByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	// DecrementStock atomically lowers stock by qty, flooring at zero, and
	// returns the new stock value.
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int64) (int64, error)
}

// CouponRepo is the coupon access the order flow needs
type CouponRepo interface {
	FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, id primitive.ObjectID) error
}

// OrderRepo persists and mutates orders
type OrderRepo interface {
	Insert(ctx context.Context, order *models.Order) (primitive.ObjectID, error)
	SetGatewayOrderID(ctx context.Context, id primitive.ObjectID, gatewayOrderID string) error
	FindByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error)
	// MarkPaid transitions pending_payment to paid. It reports false when the
	// order was not in pending_payment, which makes it the gate for payment
	// side effects under concurrent verifications.
	MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID, signature string, paidAt time.Time) (bool, error)
}

// PaymentGateway abstracts the remote payment processor
type PaymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

// StockNotifier broadcasts stock-changed events to connected clients
type StockNotifier interface {
	StockChanged(productID string, stock int64)
}

// OrderService implements order assembly and payment verification
type OrderService struct {
	products ProductRepo
	coupons  CouponRepo
	orders   OrderRepo
	gateway  PaymentGateway
	notifier StockNotifier
}

func NewOrderService(products ProductRepo, coupons CouponRepo, orders OrderRepo, gateway PaymentGateway, notifier StockNotifier) *OrderService {
	return &OrderService{
		products: products,
		coupons:  coupons,
		orders:   orders,
		gateway:  gateway,
		notifier: notifier,
	}
}

// OrderItemInput is one (product, quantity) line of a checkout request
type OrderItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,min=1"`
}

// CreateOrderInput is a checkout request
type CreateOrderInput struct {
	Items      []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	Address    models.Address   `json:"address"`
	CouponCode string           `json:"couponCode"`
}

// CheckoutDetails carries the gateway parameters the client needs to open the
// payment widget.
type CheckoutDetails struct {
	KeyID          string `json:"keyId"`
	GatewayOrderID string `json:"orderId"`
	Amount         int64  `json:"amount"` // minor units
	Currency       string `json:"currency"`
}

const orderCurrency = "INR"

// CreateOrder validates the cart against live products, prices the order,
// applies an optional coupon and persists it pending payment, then registers a
// matching gateway order. Item prices and names are snapshotted; the address
// is stored exactly as submitted.
func (s *OrderService) CreateOrder(ctx context.Context, userID primitive.ObjectID, in CreateOrderInput) (*models.Order, *CheckoutDetails, error) {
	// A repeated product id would let its lines dodge the stock guard below.
	ids := make([]primitive.ObjectID, 0, len(in.Items))
	seen := make(map[primitive.ObjectID]bool, len(in.Items))
	for _, item := range in.Items {
		id, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil || seen[id] {
			return nil, nil, ErrProductsUnavailable
		}
		seen[id] = true
		ids = append(ids, id)
	}

	products, err := s.products.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var subtotal int64
	items := make([]models.OrderItem, 0, len(in.Items))
	for i, item := range in.Items {
		p, ok := byID[ids[i]]
		if !ok {
			return nil, nil, ErrProductsUnavailable
		}
		if p.Stock < item.Quantity {
			return nil, nil, &InsufficientStockError{ProductName: p.Name}
		}
		subtotal += p.Price * item.Quantity
		snapshot := models.OrderItem{
			Product:  p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Quantity: item.Quantity,
		}
		if len(p.Images) > 0 {
			snapshot.Image = p.Images[0]
		}
		items = append(items, snapshot)
	}

	var discount int64
	var couponID *primitive.ObjectID
	if in.CouponCode != "" {
		coupon, err := s.coupons.FindActiveByCode(ctx, strings.ToUpper(in.CouponCode))
		if err != nil {
			return nil, nil, fmt.Errorf("load coupon: %w", err)
		}
		if d, ok := utils.ComputeDiscount(coupon, subtotal, time.Now()); ok {
			discount = d
			couponID = &coupon.ID
		}
	}

	total := subtotal - discount
	if total < 0 {
		total = 0
	}

	order := &models.Order{
		UserID:          userID,
		Items:           items,
		Address:         in.Address,
		Status:          models.OrderStatusPendingPayment,
		Currency:        orderCurrency,
		Subtotal:        subtotal,
		Discount:        discount,
		Total:           total,
		Coupon:          couponID,
		PaymentProvider: "razorpay",
		CreatedAt:       time.Now(),
	}
	orderID, err := s.orders.Insert(ctx, order)
	if err != nil {
		return nil, nil, fmt.Errorf("insert order: %w", err)
	}
	order.ID = orderID

	amountMinor := total * 100
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, amountMinor, orderCurrency, "order_"+orderID.Hex())
	if err != nil {
		return nil, nil, err
	}
	if err := s.orders.SetGatewayOrderID(ctx, orderID, gatewayOrderID); err != nil {
		return nil, nil, fmt.Errorf("store gateway order id: %w", err)
	}
	order.RazorpayOrderID = gatewayOrderID

	return order, &CheckoutDetails{
		KeyID:          s.gateway.KeyID(),
		GatewayOrderID: gatewayOrderID,
		Amount:         amountMinor,
		Currency:       orderCurrency,
	}, nil
}

// VerifyPaymentInput is the gateway callback payload echoed by the client
type VerifyPaymentInput struct {
	OrderID          string `json:"orderId" validate:"required"`
	GatewayOrderID   string `json:"razorpayOrderId" validate:"required"`
	GatewayPaymentID string `json:"razorpayPaymentId" validate:"required"`
	Signature        string `json:"razorpaySignature" validate:"required"`
}

// VerifyPayment confirms a payment. It is idempotent: an order already paid
// returns success with no further side effects. On the first successful
// verification it records the payment, decrements stock per line item (floored
// at zero), bumps the coupon usage count and broadcasts stock-changed events.
// The bool reports whether this call performed the pending->paid transition,
// so callers can tie their own once-only effects (confirmation email) to it.
func (s *OrderService) VerifyPayment(ctx context.Context, userID primitive.ObjectID, in VerifyPaymentInput) (*models.Order, bool, error) {
	orderID, err := primitive.ObjectIDFromHex(in.OrderID)
	if err != nil {
		return nil, false, ErrOrderNotFound
	}

	order, err := s.orders.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, false, err
	}
	if order == nil {
		return nil, false, ErrOrderNotFound
	}

	if order.Status == models.OrderStatusPaid {
		return order, false, nil
	}
	if order.RazorpayOrderID != in.GatewayOrderID {
		return nil, false, ErrGatewayOrderMismatch
	}
	if !s.gateway.VerifySignature(in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
		return nil, false, ErrInvalidSignature
	}

	paidAt := time.Now()
	transitioned, err := s.orders.MarkPaid(ctx, orderID, in.GatewayPaymentID, in.Signature, paidAt)
	if err != nil {
		return nil, false, fmt.Errorf("mark paid: %w", err)
	}
	if !transitioned {
		// A concurrent verification won the race; its side effects stand.
		settled, err := s.orders.FindByIDForUser(ctx, orderID, userID)
		return settled, false, err
	}

	for _, item := range order.Items {
		stock, err := s.products.DecrementStock(ctx, item.Product, item.Quantity)
		if err != nil {
			log.Printf("Failed to decrement stock for product %s: %v", item.Product.Hex(), err)
			continue
		}
		if s.notifier != nil {
			s.notifier.StockChanged(item.Product.Hex(), stock)
		}
	}

	if order.Coupon != nil {
		if err := s.coupons.IncrementUsage(ctx, *order.Coupon); err != nil {
			log.Printf("Failed to increment coupon usage for %s: %v", order.Coupon.Hex(), err)
		}
	}

	order.Status = models.OrderStatusPaid
	order.RazorpayPaymentID = in.GatewayPaymentID
	order.RazorpaySignature = in.Signature
	order.PaidAt = &paidAt
	return order, true, nil
}
