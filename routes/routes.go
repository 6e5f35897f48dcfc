package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/realtime"
)

// Controllers bundles everything the router wires up
type Controllers struct {
	Auth           *controllers.AuthController
	Category       *controllers.CategoryController
	Product        *controllers.ProductController
	Order          *controllers.OrderController
	Coupon         *controllers.CouponController
	Review         *controllers.ReviewController
	Recommendation *controllers.RecommendationController
	Admin          *controllers.AdminController
	Marketing      *controllers.MarketingController
	Upload         *controllers.UploadController
	Import         *controllers.ImportController
	Payment        *controllers.PaymentController
	Hub            *realtime.Hub
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers, rdb *redis.Client) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Auth routes
	auth := api.PathPrefix("/auth").Subrouter()
	auth.Use(middleware.RateLimit(rdb, 30, time.Minute))
	auth.HandleFunc("/signup", c.Auth.Signup).Methods("POST")
	auth.HandleFunc("/verify-email", c.Auth.VerifyEmail).Methods("POST")
	auth.HandleFunc("/login", c.Auth.Login).Methods("POST")
	auth.HandleFunc("/refresh", c.Auth.Refresh).Methods("POST")
	auth.HandleFunc("/forgot-password", c.Auth.ForgotPassword).Methods("POST")
	auth.HandleFunc("/reset-password", c.Auth.ResetPassword).Methods("POST")

	me := api.PathPrefix("/auth").Subrouter()
	me.Use(middleware.AuthMiddleware)
	me.HandleFunc("/me", c.Auth.Me).Methods("GET")

	// Catalog routes
	api.HandleFunc("/categories", c.Category.ListCategories).Methods("GET")
	api.HandleFunc("/products", c.Product.ListProducts).Methods("GET")
	api.HandleFunc("/products/featured", c.Product.FeaturedProducts).Methods("GET")
	api.HandleFunc("/products/{slug}", c.Product.GetProductBySlug).Methods("GET")
	api.HandleFunc("/recommendations", c.Recommendation.Related).Methods("GET")

	// Reviews
	api.HandleFunc("/reviews", c.Review.ListReviews).Methods("GET")
	reviews := api.PathPrefix("/reviews").Subrouter()
	reviews.Use(middleware.AuthMiddleware)
	reviews.HandleFunc("", c.Review.CreateOrUpdateReview).Methods("POST")

	// Coupons: apply is public, management is admin-only
	api.HandleFunc("/coupons/apply", c.Coupon.ApplyCoupon).Methods("POST")

	// Checkout
	api.HandleFunc("/payments/razorpay/key", c.Payment.Key).Methods("GET")
	orders := api.PathPrefix("/orders").Subrouter()
	orders.Use(middleware.AuthMiddleware)
	orders.Use(middleware.RateLimit(rdb, 20, time.Minute))
	orders.HandleFunc("", c.Order.CreateOrder).Methods("POST")
	orders.HandleFunc("", c.Order.ListMyOrders).Methods("GET")
	orders.HandleFunc("/verify", c.Order.VerifyPayment).Methods("POST")

	// Marketing
	marketing := api.PathPrefix("/marketing").Subrouter()
	marketing.Use(middleware.RateLimit(rdb, 10, time.Minute))
	marketing.HandleFunc("/subscribe", c.Marketing.Subscribe).Methods("POST")
	marketing.HandleFunc("/contact", c.Marketing.Contact).Methods("POST")

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AuthMiddleware)
	admin.Use(middleware.AdminMiddleware)
	admin.HandleFunc("/users", c.Admin.ListUsers).Methods("GET")
	admin.HandleFunc("/stats", c.Admin.Stats).Methods("GET")
	admin.HandleFunc("/analytics", c.Admin.Analytics).Methods("GET")
	admin.HandleFunc("/orders", c.Admin.ListOrders).Methods("GET")
	admin.HandleFunc("/orders/{id}/status", c.Admin.UpdateOrderStatus).Methods("PATCH")
	admin.HandleFunc("/contacts", c.Admin.ListContacts).Methods("GET")
	admin.HandleFunc("/categories", c.Category.CreateCategory).Methods("POST")
	admin.HandleFunc("/categories/{id}", c.Category.UpdateCategory).Methods("PUT")
	admin.HandleFunc("/categories/{id}", c.Category.DeleteCategory).Methods("DELETE")
	admin.HandleFunc("/products", c.Product.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/import", c.Import.ImportProducts).Methods("POST")
	admin.HandleFunc("/products/{id}", c.Product.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id}", c.Product.DeleteProduct).Methods("DELETE")
	admin.HandleFunc("/coupons", c.Coupon.ListCoupons).Methods("GET")
	admin.HandleFunc("/coupons", c.Coupon.CreateCoupon).Methods("POST")
	admin.HandleFunc("/coupons/{id}", c.Coupon.UpdateCoupon).Methods("PUT")
	admin.HandleFunc("/coupons/{id}", c.Coupon.DeleteCoupon).Methods("DELETE")
	admin.HandleFunc("/uploads", c.Upload.Upload).Methods("POST")

	// Static uploads and realtime stock feed
	router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(c.Upload.Dir))))
	router.HandleFunc("/ws", c.Hub.ServeWS)
}
