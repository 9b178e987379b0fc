package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/repository"
	"github.com/campusmarket/campusmarket-backend/internal/app/service"
	"github.com/campusmarket/campusmarket-backend/internal/db"
	"github.com/campusmarket/campusmarket-backend/internal/middleware"
	"github.com/campusmarket/campusmarket-backend/pkg/events"
	"github.com/campusmarket/campusmarket-backend/pkg/util"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testJWTSecret   = "controller-test-secret"
	testProxySecret = "controller-proxy-secret"
)

type harness struct {
	db     *gorm.DB
	router *gin.Engine
	auth   *middleware.AuthMiddleware

	authService         service.AuthService
	vendorService       service.VendorService
	listingService      service.ListingService
	orderService        service.OrderService
	reviewService       service.ReviewService
	wishlistService     service.WishlistService
	notificationService service.NotificationService
}

func setupHarness(t *testing.T) *harness {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	userRepo := repository.NewUserRepository(testDB)
	vendorRepo := repository.NewVendorRepository(testDB)
	listingRepo := repository.NewListingRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)
	wishlistRepo := repository.NewWishlistRepository(testDB)
	notificationRepo := repository.NewNotificationRepository(testDB)

	publisher := events.NewNoopPublisher()
	notifications := service.NewNotificationService(notificationRepo, nil)
	policy := util.EmailPolicy{AllowedDomain: "campus.edu", AdminEmails: []string{"dean@campus.edu"}}

	gin.SetMode(gin.TestMode)
	h := &harness{
		db:                  testDB,
		router:              gin.New(),
		auth:                middleware.NewAuthMiddleware(testJWTSecret),
		authService:         service.NewAuthService(userRepo, policy, testProxySecret, testJWTSecret, 15*time.Minute, time.Hour),
		vendorService:       service.NewVendorService(vendorRepo, userRepo, notifications, publisher, testDB, 5),
		listingService:      service.NewListingService(listingRepo, vendorRepo),
		orderService:        service.NewOrderService(orderRepo, vendorRepo, notifications, publisher, testDB, false),
		reviewService:       service.NewReviewService(reviewRepo, listingRepo, vendorRepo, notifications, publisher),
		wishlistService:     service.NewWishlistService(wishlistRepo, listingRepo),
		notificationService: notifications,
	}
	return h
}

func (h *harness) user(t *testing.T, email string, role model.UserRole) *model.User {
	u := &model.User{Email: email, Name: email, Role: role}
	require.NoError(t, h.db.Create(u).Error)
	return u
}

func (h *harness) vendor(t *testing.T, owner *model.User, status model.VendorStatus) *model.Vendor {
	v := &model.Vendor{Name: fmt.Sprintf("Shop of %s", owner.Email), Status: status}
	require.NoError(t, h.db.Create(v).Error)
	require.NoError(t, h.db.Create(&model.VendorMember{VendorID: v.ID, UserID: owner.ID, Role: model.MemberRoleOwner}).Error)
	return v
}

func (h *harness) listing(t *testing.T, v *model.Vendor, price string) *model.Listing {
	l := &model.Listing{
		VendorID:    v.ID,
		Title:       "Calculus textbook",
		Type:        model.ListingTypeProduct,
		IsAvailable: true,
	}
	if price != "" {
		p := decimal.RequireFromString(price)
		l.Price = &p
	}
	require.NoError(t, h.db.Omit("Vendor").Create(l).Error)
	return l
}

func (h *harness) token(t *testing.T, u *model.User) string {
	tokens, err := util.GenerateTokenPair(u.ID, u.Email, string(u.Role), testJWTSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

func (h *harness) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	env := decode(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func (h *harness) orderCount(t *testing.T) int64 {
	var n int64
	require.NoError(t, h.db.Model(&model.Order{}).Count(&n).Error)
	return n
}
