package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/repository"
	"github.com/campusmarket/campusmarket-backend/internal/db"
	"github.com/campusmarket/campusmarket-backend/pkg/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) has(t events.Type) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e.Type == t {
			return true
		}
	}
	return false
}

type testEnv struct {
	db               *gorm.DB
	userRepo         repository.UserRepository
	vendorRepo       repository.VendorRepository
	listingRepo      repository.ListingRepository
	orderRepo        repository.OrderRepository
	reviewRepo       repository.ReviewRepository
	wishlistRepo     repository.WishlistRepository
	notificationRepo repository.NotificationRepository
	notifications    NotificationService
	publisher        *recordingPublisher
}

func setupEnv(t *testing.T) *testEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	notificationRepo := repository.NewNotificationRepository(testDB)
	return &testEnv{
		db:               testDB,
		userRepo:         repository.NewUserRepository(testDB),
		vendorRepo:       repository.NewVendorRepository(testDB),
		listingRepo:      repository.NewListingRepository(testDB),
		orderRepo:        repository.NewOrderRepository(testDB),
		reviewRepo:       repository.NewReviewRepository(testDB),
		wishlistRepo:     repository.NewWishlistRepository(testDB),
		notificationRepo: notificationRepo,
		notifications:    NewNotificationService(notificationRepo, nil),
		publisher:        &recordingPublisher{},
	}
}

func (e *testEnv) user(t *testing.T, email string, role model.UserRole) (*model.User, Actor) {
	u := &model.User{Email: email, Name: email, Role: role}
	require.NoError(t, e.db.Create(u).Error)
	return u, Actor{UserID: u.ID, Role: u.Role}
}

func (e *testEnv) vendor(t *testing.T, owner *model.User, status model.VendorStatus) *model.Vendor {
	v := &model.Vendor{Name: fmt.Sprintf("Shop of %s", owner.Email), Status: status}
	require.NoError(t, e.db.Create(v).Error)
	e.member(t, v, owner, model.MemberRoleOwner)
	return v
}

func (e *testEnv) member(t *testing.T, v *model.Vendor, u *model.User, role model.MemberRole) {
	require.NoError(t, e.db.Create(&model.VendorMember{VendorID: v.ID, UserID: u.ID, Role: role}).Error)
}

// listing creates an available PRODUCT priced at price ("" for contact for price).
func (e *testEnv) listing(t *testing.T, v *model.Vendor, price string, stock *int) *model.Listing {
	l := &model.Listing{
		VendorID:    v.ID,
		Title:       "Used bike",
		Description: "Blue, two gears",
		Type:        model.ListingTypeProduct,
		Stock:       stock,
		IsAvailable: true,
	}
	if price != "" {
		p := decimal.RequireFromString(price)
		l.Price = &p
	}
	require.NoError(t, e.db.Omit("Vendor").Create(l).Error)
	return l
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
