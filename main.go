package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/realtime"
	"go-storefront/repository"
	"go-storefront/routes"
	"go-storefront/services"
	"go-storefront/utils"
)

func main() {
	// Load environment variables from .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	// Set the JWT secret keys
	utils.JwtAccessKey = []byte(os.Getenv("JWT_ACCESS_SECRET"))
	utils.JwtRefreshKey = []byte(os.Getenv("JWT_REFRESH_SECRET"))

	// Initialize EmailService
	emailService := utils.NewEmailService()

	// Connect to MongoDB
	client := utils.ConnectDB()
	defer func() {
		if err = client.Disconnect(context.TODO()); err != nil {
			log.Fatal(err)
		}
	}()

	// Redis is optional; without it rate limiting passes through and
	// stock updates broadcast to local connections only.
	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
	}

	hub := realtime.NewHub(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	// Payment gateway
	gateway := utils.NewRazorpayGateway(os.Getenv("RAZORPAY_KEY_ID"), os.Getenv("RAZORPAY_KEY_SECRET"))

	// Checkout pipeline
	orderService := services.NewOrderService(
		repository.NewProductRepo(client),
		repository.NewCouponRepo(client),
		repository.NewOrderRepo(client),
		gateway,
		hub,
	)

	// Initialize controllers
	c := routes.Controllers{
		Auth:           controllers.NewAuthController(client, emailService),
		Category:       controllers.NewCategoryController(client),
		Product:        controllers.NewProductController(client, hub),
		Order:          controllers.NewOrderController(client, orderService, emailService),
		Coupon:         controllers.NewCouponController(client),
		Review:         controllers.NewReviewController(client),
		Recommendation: controllers.NewRecommendationController(client),
		Admin:          controllers.NewAdminController(client),
		Marketing:      controllers.NewMarketingController(client),
		Upload:         controllers.NewUploadController(os.Getenv("UPLOAD_DIR")),
		Import:         controllers.NewImportController(client),
		Payment:        controllers.NewPaymentController(gateway),
		Hub:            hub,
	}

	// Set up the router
	router := mux.NewRouter()

	// Register routes
	routes.RegisterRoutes(router, c, rdb)

	// CORS wraps the router itself rather than going through router.Use: mux
	// only runs middleware on a route match, and no route registers OPTIONS,
	// so preflight requests would otherwise 404 without CORS headers.
	origin := os.Getenv("CORS_ORIGIN")
	if origin == "" {
		origin = "*"
	}
	handler := middleware.CORS(origin)(router)

	// Start the server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	fmt.Printf("Server is running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
