package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campusmarket/campusmarket-backend/config"
	"github.com/campusmarket/campusmarket-backend/internal/app/controller"
	"github.com/campusmarket/campusmarket-backend/internal/app/repository"
	"github.com/campusmarket/campusmarket-backend/internal/app/service"
	"github.com/campusmarket/campusmarket-backend/internal/db"
	apperrors "github.com/campusmarket/campusmarket-backend/internal/errors"
	"github.com/campusmarket/campusmarket-backend/internal/middleware"
	"github.com/campusmarket/campusmarket-backend/internal/router"
	ws "github.com/campusmarket/campusmarket-backend/internal/websocket"
	"github.com/campusmarket/campusmarket-backend/pkg/events"
	"github.com/campusmarket/campusmarket-backend/pkg/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	integrationJWTSecret   = "integration-jwt-secret"
	integrationProxySecret = "integration-proxy-secret"
)

type TestServer struct {
	Router *gin.Engine
	DB     *gorm.DB
}

func setupIntegrationTest(t *testing.T) *TestServer {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode, Environment: "test"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"https://market.campus.edu"}},
	}

	userRepo := repository.NewUserRepository(testDB)
	vendorRepo := repository.NewVendorRepository(testDB)
	listingRepo := repository.NewListingRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)
	wishlistRepo := repository.NewWishlistRepository(testDB)
	notificationRepo := repository.NewNotificationRepository(testDB)

	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	publisher := events.NewNoopPublisher()
	policy := util.EmailPolicy{AllowedDomain: "campus.edu", AdminEmails: []string{"dean@campus.edu"}}

	authService := service.NewAuthService(userRepo, policy, integrationProxySecret, integrationJWTSecret, 15*time.Minute, time.Hour)
	notificationService := service.NewNotificationService(notificationRepo, hub)
	vendorService := service.NewVendorService(vendorRepo, userRepo, notificationService, publisher, testDB, 5)
	listingService := service.NewListingService(listingRepo, vendorRepo)
	orderService := service.NewOrderService(orderRepo, vendorRepo, notificationService, publisher, testDB, false)
	reviewService := service.NewReviewService(reviewRepo, listingRepo, vendorRepo, notificationService, publisher)
	wishlistService := service.NewWishlistService(wishlistRepo, listingRepo)

	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewListingController(listingService),
		controller.NewVendorController(vendorService, listingService, orderService),
		controller.NewOrderController(orderService),
		controller.NewReviewController(reviewService),
		controller.NewWishlistController(wishlistService),
		controller.NewNotificationController(notificationService),
		nil,
		controller.NewWebSocketController(hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(integrationJWTSecret),
		cfg,
	)

	return &TestServer{Router: r.Setup(), DB: testDB}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type result struct {
	Code int
	Body envelope
	Raw  string
}

func (s *TestServer) request(t *testing.T, method, path, token string, body interface{}, headers ...string) result {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	res := result{Code: w.Code, Raw: w.Body.String()}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res.Body), res.Raw)
	}
	return res
}

func (r result) into(t *testing.T, dst interface{}) {
	t.Helper()
	require.True(t, r.Body.Success, r.Raw)
	require.NoError(t, json.Unmarshal(r.Body.Data, dst))
}

type signedIn struct {
	UserID uint
	Token  string
}

func (s *TestServer) signIn(t *testing.T, email string) signedIn {
	t.Helper()
	res := s.request(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"provider_id": "sub-" + email,
		"email":       email,
		"name":        email,
	}, controller.IdentitySecretHeader, integrationProxySecret)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)

	var data struct {
		User   struct{ ID uint } `json:"user"`
		Tokens util.TokenPair    `json:"tokens"`
	}
	res.into(t, &data)
	return signedIn{UserID: data.User.ID, Token: data.Tokens.AccessToken}
}

type idStatus struct {
	ID     uint   `json:"id"`
	Status string `json:"status"`
}

func TestIntegration_HealthCheck(t *testing.T) {
	server := setupIntegrationTest(t)

	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestIntegration_SignInPolicy(t *testing.T) {
	server := setupIntegrationTest(t)

	res := server.request(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"provider_id": "x", "email": "someone@gmail.com", "name": "Someone",
	}, controller.IdentitySecretHeader, integrationProxySecret)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = server.request(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"provider_id": "x", "email": "student@campus.edu", "name": "Student",
	}, controller.IdentitySecretHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	dean := server.signIn(t, "dean@campus.edu")
	res = server.request(t, http.MethodGet, "/api/v1/auth/me", dean.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var me struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	res.into(t, &me)
	assert.Equal(t, "admin", me.User.Role)
}

func TestIntegration_MarketplaceLifecycle(t *testing.T) {
	server := setupIntegrationTest(t)

	dean := server.signIn(t, "dean@campus.edu")
	seller := server.signIn(t, "seller@campus.edu")
	buyer := server.signIn(t, "buyer@campus.edu")

	// A new vendor starts PENDING and cannot list anything yet.
	res := server.request(t, http.MethodPost, "/api/v1/businesses", seller.Token, map[string]string{
		"name": "Dorm Bakery", "description": "Cookies after midnight",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	var created struct {
		Business idStatus `json:"business"`
	}
	res.into(t, &created)
	vendorID := created.Business.ID
	assert.Equal(t, "PENDING", created.Business.Status)

	listingBody := map[string]interface{}{
		"business_id": vendorID,
		"title":       "Chocolate chip cookie",
		"type":        "FOOD",
		"price":       "2.50",
		"stock":       10,
	}
	res = server.request(t, http.MethodPost, "/api/v1/listings", seller.Token, listingBody)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	// Only admins approve.
	res = server.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/businesses/%d", vendorID), seller.Token, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, res.Code)
	res = server.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/businesses/%d", vendorID), dean.Token, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, res.Code, res.Raw)

	// Strangers cannot list for a vendor they do not belong to.
	res = server.request(t, http.MethodPost, "/api/v1/listings", buyer.Token, listingBody)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = server.request(t, http.MethodPost, "/api/v1/listings", seller.Token, listingBody)
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	var listing struct {
		Listing struct {
			ID uint `json:"id"`
		} `json:"listing"`
	}
	res.into(t, &listing)
	listingID := listing.Listing.ID

	res = server.request(t, http.MethodGet, "/api/v1/listings?search=CHOCOLATE", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var search struct {
		Total int64 `json:"total"`
	}
	res.into(t, &search)
	assert.Equal(t, int64(1), search.Total)

	// Quantity above stock is rejected; a valid order freezes the total.
	res = server.request(t, http.MethodPost, "/api/v1/orders", buyer.Token, map[string]interface{}{"listing_id": listingID, "quantity": 11})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = server.request(t, http.MethodPost, "/api/v1/orders", buyer.Token, map[string]interface{}{"listing_id": listingID, "quantity": 4})
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	var placed struct {
		Order struct {
			ID         uint   `json:"id"`
			Status     string `json:"status"`
			TotalPrice string `json:"total_price"`
		} `json:"order"`
	}
	res.into(t, &placed)
	orderID := placed.Order.ID
	assert.Equal(t, "PENDING", placed.Order.Status)
	assert.Equal(t, "10", placed.Order.TotalPrice)

	// The vendor is told about the new order.
	res = server.request(t, http.MethodGet, "/api/v1/notifications/unread-count", seller.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var unread struct {
		UnreadCount int64 `json:"unread_count"`
	}
	res.into(t, &unread)
	assert.Equal(t, int64(1), unread.UnreadCount)

	orderPath := fmt.Sprintf("/api/v1/orders/%d", orderID)

	// The buyer cannot drive the vendor side of the state machine.
	res = server.request(t, http.MethodPatch, orderPath, buyer.Token, map[string]string{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusForbidden, res.Code)

	// Skipping CONFIRMED is not an allowed edge.
	res = server.request(t, http.MethodPatch, orderPath, seller.Token, map[string]string{"status": "DELIVERED"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, apperrors.OrderInvalidTransition, res.Body.Error)

	for _, next := range []string{"confirmed", "delivered"} {
		res = server.request(t, http.MethodPatch, orderPath, seller.Token, map[string]string{"status": next})
		require.Equal(t, http.StatusOK, res.Code, res.Raw)
	}

	// DELIVERED is terminal.
	res = server.request(t, http.MethodPatch, orderPath, seller.Token, map[string]string{"status": "CANCELLED"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = server.request(t, http.MethodGet, orderPath, buyer.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var fetched struct {
		Order idStatus `json:"order"`
	}
	res.into(t, &fetched)
	assert.Equal(t, "DELIVERED", fetched.Order.Status)

	// One review per user per listing.
	eligibilityPath := fmt.Sprintf("/api/v1/listings/%d/reviews/eligibility", listingID)
	var eligibility struct {
		CanReview bool `json:"can_review"`
	}
	res = server.request(t, http.MethodGet, eligibilityPath, buyer.Token, nil)
	res.into(t, &eligibility)
	assert.True(t, eligibility.CanReview)

	res = server.request(t, http.MethodPost, "/api/v1/reviews", buyer.Token, map[string]interface{}{"listing_id": listingID, "rating": 6})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = server.request(t, http.MethodPost, "/api/v1/reviews", buyer.Token, map[string]interface{}{"listing_id": listingID, "rating": 5, "comment": "Still warm"})
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)

	res = server.request(t, http.MethodPost, "/api/v1/reviews", buyer.Token, map[string]interface{}{"listing_id": listingID, "rating": 4})
	assert.Equal(t, http.StatusConflict, res.Code)

	res = server.request(t, http.MethodGet, eligibilityPath, buyer.Token, nil)
	res.into(t, &eligibility)
	assert.False(t, eligibility.CanReview)

	// Rejecting the vendor hides its listings from the public and blocks new orders.
	res = server.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/businesses/%d", vendorID), dean.Token, map[string]string{"status": "REJECTED"})
	require.Equal(t, http.StatusOK, res.Code, res.Raw)

	listingPath := fmt.Sprintf("/api/v1/listings/%d", listingID)
	res = server.request(t, http.MethodGet, listingPath, "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	res = server.request(t, http.MethodGet, listingPath, seller.Token, nil)
	assert.Equal(t, http.StatusOK, res.Code, "members still see their own listing")

	res = server.request(t, http.MethodGet, "/api/v1/listings", "", nil)
	res.into(t, &search)
	assert.Equal(t, int64(0), search.Total)

	res = server.request(t, http.MethodPost, "/api/v1/orders", buyer.Token, map[string]interface{}{"listing_id": listingID, "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, apperrors.ListingNotPurchasable, res.Body.Error)
}

func TestIntegration_BuyerCancelsPendingOrder(t *testing.T) {
	server := setupIntegrationTest(t)

	dean := server.signIn(t, "dean@campus.edu")
	seller := server.signIn(t, "seller@campus.edu")
	buyer := server.signIn(t, "buyer@campus.edu")
	other := server.signIn(t, "other@campus.edu")

	res := server.request(t, http.MethodPost, "/api/v1/businesses", seller.Token, map[string]string{"name": "Print Shop"})
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	var created struct {
		Business idStatus `json:"business"`
	}
	res.into(t, &created)
	res = server.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/businesses/%d", created.Business.ID), dean.Token, map[string]string{"status": "APPROVED"})
	require.Equal(t, http.StatusOK, res.Code, res.Raw)

	res = server.request(t, http.MethodPost, "/api/v1/listings", seller.Token, map[string]interface{}{
		"business_id": created.Business.ID,
		"title":       "Poster printing",
		"type":        "SERVICE",
		"price":       "7",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	var listing struct {
		Listing struct {
			ID uint `json:"id"`
		} `json:"listing"`
	}
	res.into(t, &listing)

	res = server.request(t, http.MethodPost, "/api/v1/orders", buyer.Token, map[string]interface{}{"listing_id": listing.Listing.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	var placed struct {
		Order idStatus `json:"order"`
	}
	res.into(t, &placed)
	cancelPath := fmt.Sprintf("/api/v1/orders/%d/cancel", placed.Order.ID)

	res = server.request(t, http.MethodPost, cancelPath, other.Token, nil)
	assert.Equal(t, http.StatusForbidden, res.Code, "only the buyer may cancel")

	res = server.request(t, http.MethodPost, cancelPath, buyer.Token, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	var cancelled struct {
		Order idStatus `json:"order"`
	}
	res.into(t, &cancelled)
	assert.Equal(t, "CANCELLED", cancelled.Order.Status)

	res = server.request(t, http.MethodGet, fmt.Sprintf("/api/v1/businesses/%d/orders?status=CANCELLED", created.Business.ID), seller.Token, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	var vendorOrders struct {
		Count int `json:"count"`
	}
	res.into(t, &vendorOrders)
	assert.Equal(t, 1, vendorOrders.Count)
}
