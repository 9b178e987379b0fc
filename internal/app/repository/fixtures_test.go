package repository

import (
	"fmt"
	"testing"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createUser(t *testing.T, testDB *gorm.DB, email string) *model.User {
	user := &model.User{Email: email, Name: email, Role: model.RoleUser}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createVendor(t *testing.T, testDB *gorm.DB, owner *model.User, status model.VendorStatus) *model.Vendor {
	vendor := &model.Vendor{Name: fmt.Sprintf("Vendor of %s", owner.Email), Status: status}
	require.NoError(t, testDB.Create(vendor).Error)
	require.NoError(t, testDB.Create(&model.VendorMember{
		VendorID: vendor.ID,
		UserID:   owner.ID,
		Role:     model.MemberRoleOwner,
	}).Error)
	return vendor
}

func createListing(t *testing.T, testDB *gorm.DB, vendor *model.Vendor, title string, price string, available bool) *model.Listing {
	listing := &model.Listing{
		VendorID:    vendor.ID,
		Title:       title,
		Description: "description of " + title,
		Type:        model.ListingTypeProduct,
		IsAvailable: available,
		Images:      model.StringArray{"https://cdn.example.com/" + title + ".jpg"},
	}
	if price != "" {
		p := decimal.RequireFromString(price)
		listing.Price = &p
	}
	require.NoError(t, testDB.Omit("Vendor").Create(listing).Error)
	return listing
}
