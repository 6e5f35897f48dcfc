package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-storefront/models"
)

type mockProductRepo struct{ mock.Mock }

func (m *mockProductRepo) FindActiveByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	args := m.Called(ctx, ids)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

func (m *mockProductRepo) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int64) (int64, error) {
	args := m.Called(ctx, id, qty)
	return args.Get(0).(int64), args.Error(1)
}

type mockCouponRepo struct{ mock.Mock }

func (m *mockCouponRepo) FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	args := m.Called(ctx, code)
	coupon, _ := args.Get(0).(*models.Coupon)
	return coupon, args.Error(1)
}

func (m *mockCouponRepo) IncrementUsage(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

type mockOrderRepo struct{ mock.Mock }

func (m *mockOrderRepo) Insert(ctx context.Context, order *models.Order) (primitive.ObjectID, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockOrderRepo) SetGatewayOrderID(ctx context.Context, id primitive.ObjectID, gatewayOrderID string) error {
	return m.Called(ctx, id, gatewayOrderID).Error(0)
}

func (m *mockOrderRepo) FindByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error) {
	args := m.Called(ctx, id, userID)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderRepo) MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID, signature string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, id, paymentID, signature, paidAt)
	return args.Bool(0), args.Error(1)
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) KeyID() string {
	return m.Called().String(0)
}

func (m *mockGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	args := m.Called(ctx, amountMinor, currency, receipt)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return m.Called(gatewayOrderID, paymentID, signature).Bool(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) StockChanged(productID string, stock int64) {
	m.Called(productID, stock)
}

type serviceMocks struct {
	products *mockProductRepo
	coupons  *mockCouponRepo
	orders   *mockOrderRepo
	gateway  *mockGateway
	notifier *mockNotifier
}

func newTestService() (*OrderService, *serviceMocks) {
	m := &serviceMocks{
		products: &mockProductRepo{},
		coupons:  &mockCouponRepo{},
		orders:   &mockOrderRepo{},
		gateway:  &mockGateway{},
		notifier: &mockNotifier{},
	}
	return NewOrderService(m.products, m.coupons, m.orders, m.gateway, m.notifier), m
}

func testProduct(name string, price, stock int64) models.Product {
	return models.Product{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Slug:     name,
		Price:    price,
		Stock:    stock,
		Images:   []string{"/uploads/" + name + ".jpg"},
		IsActive: true,
	}
}

func TestCreateOrderSuccess(t *testing.T) {
	svc, m := newTestService()
	userID := primitive.NewObjectID()
	shiitake := testProduct("shiitake", 450, 10)
	oyster := testProduct("oyster", 300, 5)
	orderID := primitive.NewObjectID()

	m.products.On("FindActiveByIDs", mock.Anything, mock.Anything).
		Return([]models.Product{shiitake, oyster}, nil)
	m.orders.On("Insert", mock.Anything, mock.Anything).Return(orderID, nil)
	m.gateway.On("CreateOrder", mock.Anything, int64(120000), "INR", "order_"+orderID.Hex()).
		Return("order_rzp123", nil)
	m.gateway.On("KeyID").Return("rzp_test_key")
	m.orders.On("SetGatewayOrderID", mock.Anything, orderID, "order_rzp123").Return(nil)

	order, checkout, err := svc.CreateOrder(context.Background(), userID, CreateOrderInput{
		Items: []OrderItemInput{
			{ProductID: shiitake.ID.Hex(), Quantity: 2},
			{ProductID: oyster.ID.Hex(), Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1200), order.Subtotal)
	assert.Equal(t, int64(0), order.Discount)
	assert.Equal(t, int64(1200), order.Total)
	assert.Equal(t, models.OrderStatusPendingPayment, order.Status)
	assert.Equal(t, "order_rzp123", order.RazorpayOrderID)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "shiitake", order.Items[0].Name)
	assert.Equal(t, int64(450), order.Items[0].Price)
	assert.Equal(t, int64(2), order.Items[0].Quantity)
	assert.Equal(t, "/uploads/shiitake.jpg", order.Items[0].Image)

	assert.Equal(t, "rzp_test_key", checkout.KeyID)
	assert.Equal(t, "order_rzp123", checkout.GatewayOrderID)
	assert.Equal(t, int64(120000), checkout.Amount) // minor units
	assert.Equal(t, "INR", checkout.Currency)

	m.orders.AssertExpectations(t)
	m.gateway.AssertExpectations(t)
}

func TestCreateOrderAppliesCoupon(t *testing.T) {
	svc, m := newTestService()
	userID := primitive.NewObjectID()
	product := testProduct("shiitake", 500, 10)
	orderID := primitive.NewObjectID()
	coupon := &models.Coupon{
		ID:       primitive.NewObjectID(),
		Code:     "SAVE10",
		Type:     models.CouponTypePercent,
		Value:    10,
		IsActive: true,
	}

	m.products.On("FindActiveByIDs", mock.Anything, mock.Anything).
		Return([]models.Product{product}, nil)
	m.coupons.On("FindActiveByCode", mock.Anything, "SAVE10").Return(coupon, nil)
	m.orders.On("Insert", mock.Anything, mock.Anything).Return(orderID, nil)
	m.gateway.On("CreateOrder", mock.Anything, int64(90000), "INR", mock.Anything).
		Return("order_rzp456", nil)
	m.gateway.On("KeyID").Return("rzp_test_key")
	m.orders.On("SetGatewayOrderID", mock.Anything, orderID, "order_rzp456").Return(nil)

	order, _, err := svc.CreateOrder(context.Background(), userID, CreateOrderInput{
		Items:      []OrderItemInput{{ProductID: product.ID.Hex(), Quantity: 2}},
		CouponCode: "save10", // lookup is case-insensitive
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1000), order.Subtotal)
	assert.Equal(t, int64(100), order.Discount)
	assert.Equal(t, int64(900), order.Total)
	require.NotNil(t, order.Coupon)
	assert.Equal(t, coupon.ID, *order.Coupon)
}

func TestCreateOrderIneligibleCouponIgnored(t *testing.T) {
	svc, m := newTestService()
	product := testProduct("shiitake", 500, 10)
	orderID := primitive.NewObjectID()

	m.products.On("FindActiveByIDs", mock.Anything, mock.Anything).
		Return([]models.Product{product}, nil)
	m.coupons.On("FindActiveByCode", mock.Anything, "GONE").Return(nil, nil)
	m.orders.On("Insert", mock.Anything, mock.Anything).Return(orderID, nil)
	m.gateway.On("CreateOrder", mock.Anything, int64(50000), "INR", mock.Anything).
		Return("order_rzp789", nil)
	m.gateway.On("KeyID").Return("rzp_test_key")
	m.orders.On("SetGatewayOrderID", mock.Anything, orderID, "order_rzp789").Return(nil)

	order, _, err := svc.CreateOrder(context.Background(), primitive.NewObjectID(), CreateOrderInput{
		Items:      []OrderItemInput{{ProductID: product.ID.Hex(), Quantity: 1}},
		CouponCode: "GONE",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), order.Discount)
	assert.Nil(t, order.Coupon)
}

func TestCreateOrderInvalidProductID(t *testing.T) {
	svc, m := newTestService()

	_, _, err := svc.CreateOrder(context.Background(), primitive.NewObjectID(), CreateOrderInput{
		Items: []OrderItemInput{{ProductID: "not-a-hex-id", Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrProductsUnavailable)
	m.orders.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreateOrderMissingProductNotPersisted(t *testing.T) {
	svc, m := newTestService()
	product := testProduct("shiitake", 500, 10)
	missing := primitive.NewObjectID()

	m.products.On("FindActiveByIDs", mock.Anything, mock.Anything).
		Return([]models.Product{product}, nil)

	_, _, err := svc.CreateOrder(context.Background(), primitive.NewObjectID(), CreateOrderInput{
		Items: []OrderItemInput{
			{ProductID: product.ID.Hex(), Quantity: 1},
			{ProductID: missing.Hex(), Quantity: 1},
		},
	})
	assert.ErrorIs(t, err, ErrProductsUnavailable)
	m.orders.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	m.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrderInsufficientStockNotPersisted(t *testing.T) {
	svc, m := newTestService()
	product := testProduct("shiitake", 500, 2)

	m.products.On("FindActiveByIDs", mock.Anything, mock.Anything).
		Return([]models.Product{product}, nil)

	_, _, err := svc.CreateOrder(context.Background(), primitive.NewObjectID(), CreateOrderInput{
		Items: []OrderItemInput{{ProductID: product.ID.Hex(), Quantity: 3}},
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "shiitake", stockErr.ProductName)
	m.orders.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreateOrderDuplicateProductLines(t *testing.T) {
	svc, m := newTestService()
	product := testProduct("shiitake", 500, 3)

	// Two lines of 2 against stock 3: split across lines each passes the
	// per-line guard, so duplicates must be rejected outright.
	_, _, err := svc.CreateOrder(context.Background(), primitive.NewObjectID(), CreateOrderInput{
		Items: []OrderItemInput{
			{ProductID: product.ID.Hex(), Quantity: 2},
			{ProductID: product.ID.Hex(), Quantity: 2},
		},
	})
	assert.ErrorIs(t, err, ErrProductsUnavailable)
	m.products.AssertNotCalled(t, "FindActiveByIDs", mock.Anything, mock.Anything)
	m.orders.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func pendingOrder(userID primitive.ObjectID) *models.Order {
	couponID := primitive.NewObjectID()
	return &models.Order{
		ID:     primitive.NewObjectID(),
		UserID: userID,
		Items: []models.OrderItem{
			{Product: primitive.NewObjectID(), Name: "shiitake", Price: 450, Quantity: 2},
			{Product: primitive.NewObjectID(), Name: "oyster", Price: 300, Quantity: 1},
		},
		Status:          models.OrderStatusPendingPayment,
		Currency:        "INR",
		Subtotal:        1200,
		Discount:        0,
		Total:           1200,
		Coupon:          &couponID,
		RazorpayOrderID: "order_rzp123",
	}
}

func TestVerifyPaymentSuccess(t *testing.T) {
	svc, m := newTestService()
	userID := primitive.NewObjectID()
	order := pendingOrder(userID)

	m.orders.On("FindByIDForUser", mock.Anything, order.ID, userID).Return(order, nil)
	m.gateway.On("VerifySignature", "order_rzp123", "pay_1", "sig").Return(true)
	m.orders.On("MarkPaid", mock.Anything, order.ID, "pay_1", "sig", mock.Anything).Return(true, nil)
	m.products.On("DecrementStock", mock.Anything, order.Items[0].Product, int64(2)).Return(int64(8), nil)
	m.products.On("DecrementStock", mock.Anything, order.Items[1].Product, int64(1)).Return(int64(4), nil)
	m.notifier.On("StockChanged", order.Items[0].Product.Hex(), int64(8)).Once()
	m.notifier.On("StockChanged", order.Items[1].Product.Hex(), int64(4)).Once()
	m.coupons.On("IncrementUsage", mock.Anything, *order.Coupon).Return(nil)

	got, confirmed, err := svc.VerifyPayment(context.Background(), userID, VerifyPaymentInput{
		OrderID:          order.ID.Hex(),
		GatewayOrderID:   "order_rzp123",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	})
	require.NoError(t, err)

	assert.True(t, confirmed)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	assert.Equal(t, "pay_1", got.RazorpayPaymentID)
	require.NotNil(t, got.PaidAt)

	m.products.AssertExpectations(t)
	m.notifier.AssertExpectations(t)
	m.coupons.AssertExpectations(t)
}

func TestVerifyPaymentTamperedSignature(t *testing.T) {
	svc, m := newTestService()
	userID := primitive.NewObjectID()
	order := pendingOrder(userID)

	m.orders.On("FindByIDForUser", mock.Anything, order.ID, userID).Return(order, nil)
	m.gateway.On("VerifySignature", "order_rzp123", "pay_1", "forged").Return(false)

	_, _, err := svc.VerifyPayment(context.Background(), userID, VerifyPaymentInput{
		OrderID:          order.ID.Hex(),
		GatewayOrderID:   "order_rzp123",
		GatewayPaymentID: "pay_1",
		Signature:        "forged",
	})
	assert.ErrorIs(t, err, ErrInvalidSignature)
	m.orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyPaymentGatewayOrderMismatch(t *testing.T) {
	svc, m := newTestService()
	userID := primitive.NewObjectID()
	order := pendingOrder(userID)

	m.orders.On("FindByIDForUser", mock.Anything, order.ID, userID).Return(order, nil)

	_, _, err := svc.VerifyPayment(context.Background(), userID, VerifyPaymentInput{
		OrderID:          order.ID.Hex(),
		GatewayOrderID:   "order_someone_elses",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	})
	assert.ErrorIs(t, err, ErrGatewayOrderMismatch)
	m.gateway.AssertNotCalled(t, "VerifySignature", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyPaymentAlreadyPaidIdempotent(t *testing.T) {
	svc, m := newTestService()
	userID := primitive.NewObjectID()
	order := pendingOrder(userID)
	order.Status = models.OrderStatusPaid

	m.orders.On("FindByIDForUser", mock.Anything, order.ID, userID).Return(order, nil)

	got, confirmed, err := svc.VerifyPayment(context.Background(), userID, VerifyPaymentInput{
		OrderID:          order.ID.Hex(),
		GatewayOrderID:   "order_rzp123",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	})
	require.NoError(t, err)
	assert.False(t, confirmed) // callers must not repeat once-only effects
	assert.Equal(t, models.OrderStatusPaid, got.Status)

	m.orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
	m.coupons.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything)
}

func TestVerifyPaymentConcurrentLoserSkipsSideEffects(t *testing.T) {
	svc, m := newTestService()
	userID := primitive.NewObjectID()
	order := pendingOrder(userID)
	settled := *order
	settled.Status = models.OrderStatusPaid

	m.orders.On("FindByIDForUser", mock.Anything, order.ID, userID).Return(order, nil).Once()
	m.gateway.On("VerifySignature", "order_rzp123", "pay_1", "sig").Return(true)
	m.orders.On("MarkPaid", mock.Anything, order.ID, "pay_1", "sig", mock.Anything).Return(false, nil)
	m.orders.On("FindByIDForUser", mock.Anything, order.ID, userID).Return(&settled, nil).Once()

	got, confirmed, err := svc.VerifyPayment(context.Background(), userID, VerifyPaymentInput{
		OrderID:          order.ID.Hex(),
		GatewayOrderID:   "order_rzp123",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	})
	require.NoError(t, err)
	assert.False(t, confirmed)
	assert.Equal(t, models.OrderStatusPaid, got.Status)

	m.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
	m.coupons.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything)
}

func TestVerifyPaymentUnknownOrder(t *testing.T) {
	svc, m := newTestService()
	userID := primitive.NewObjectID()
	orderID := primitive.NewObjectID()

	m.orders.On("FindByIDForUser", mock.Anything, orderID, userID).Return(nil, nil)

	_, _, err := svc.VerifyPayment(context.Background(), userID, VerifyPaymentInput{
		OrderID:          orderID.Hex(),
		GatewayOrderID:   "order_rzp123",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestVerifyPaymentStockErrorDoesNotFailVerification(t *testing.T) {
	svc, m := newTestService()
	userID := primitive.NewObjectID()
	order := pendingOrder(userID)
	order.Coupon = nil

	m.orders.On("FindByIDForUser", mock.Anything, order.ID, userID).Return(order, nil)
	m.gateway.On("VerifySignature", "order_rzp123", "pay_1", "sig").Return(true)
	m.orders.On("MarkPaid", mock.Anything, order.ID, "pay_1", "sig", mock.Anything).Return(true, nil)
	m.products.On("DecrementStock", mock.Anything, order.Items[0].Product, int64(2)).
		Return(int64(0), errors.New("write conflict"))
	m.products.On("DecrementStock", mock.Anything, order.Items[1].Product, int64(1)).Return(int64(4), nil)
	m.notifier.On("StockChanged", order.Items[1].Product.Hex(), int64(4)).Once()

	got, confirmed, err := svc.VerifyPayment(context.Background(), userID, VerifyPaymentInput{
		OrderID:          order.ID.Hex(),
		GatewayOrderID:   "order_rzp123",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	})
	require.NoError(t, err)
	assert.True(t, confirmed)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	m.notifier.AssertExpectations(t)
}
