package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/realtime"
)

// newTestHandler mirrors the wiring in main: routes registered on a mux
// router, then the whole router wrapped with CORS.
func newTestHandler(t *testing.T, origin string) http.Handler {
	t.Helper()

	router := mux.NewRouter()
	RegisterRoutes(router, Controllers{
		Auth:           &controllers.AuthController{},
		Category:       &controllers.CategoryController{},
		Product:        &controllers.ProductController{},
		Order:          &controllers.OrderController{},
		Coupon:         &controllers.CouponController{},
		Review:         &controllers.ReviewController{},
		Recommendation: &controllers.RecommendationController{},
		Admin:          &controllers.AdminController{},
		Marketing:      &controllers.MarketingController{},
		Upload:         &controllers.UploadController{Dir: t.TempDir()},
		Import:         &controllers.ImportController{},
		Payment:        &controllers.PaymentController{},
		Hub:            realtime.NewHub(nil),
	}, nil)
	return middleware.CORS(origin)(router)
}

func TestPreflightAnswered(t *testing.T) {
	handler := newTestHandler(t, "http://localhost:5173")

	// None of these paths register an OPTIONS method; preflight must still
	// come back with CORS headers instead of a bare 404.
	for _, path := range []string{"/api/orders", "/api/marketing/subscribe", "/api/auth/login"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code, path)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"), path)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST", path)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization", path)
	}
}

func TestCORSHeadersOnMatchedRoute(t *testing.T) {
	handler := newTestHandler(t, "http://localhost:5173")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
