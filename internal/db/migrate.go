package db

import (
	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Vendor{},
		&model.VendorMember{},
		&model.Listing{},
		&model.Order{},
		&model.Review{},
		&model.WishlistItem{},
		&model.Notification{},
	}
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed inserts a demo vendor with a few listings when the database has no vendors yet.
// ownerEmail becomes the vendor OWNER, created on the fly if needed.
func Seed(db *gorm.DB, ownerEmail string) error {
	var count int64
	if err := db.Model(&model.Vendor{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Vendors already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	logger.Info("Seeding demo marketplace data...")

	return db.Transaction(func(tx *gorm.DB) error {
		owner := model.User{Email: ownerEmail, Name: "Demo Owner", Role: model.RoleUser}
		if err := tx.Where(model.User{Email: ownerEmail}).FirstOrCreate(&owner).Error; err != nil {
			logger.Error("Failed to create demo owner", err)
			return err
		}

		vendor := model.Vendor{
			Name:        "Campus Bookstore",
			Description: "Textbooks, stationery and late-night snacks",
			Status:      model.VendorStatusApproved,
		}
		if err := tx.Create(&vendor).Error; err != nil {
			logger.Error("Failed to create demo vendor", err)
			return err
		}
		member := model.VendorMember{VendorID: vendor.ID, UserID: owner.ID, Role: model.MemberRoleOwner}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		price := func(s string) *decimal.Decimal {
			d := decimal.RequireFromString(s)
			return &d
		}
		stock := 25

		listings := []model.Listing{
			{VendorID: vendor.ID, Title: "Intro to Algorithms (used)", Type: model.ListingTypeProduct, Price: price("45.00"), Stock: &stock, IsAvailable: true},
			{VendorID: vendor.ID, Title: "Essay proofreading", Type: model.ListingTypeService, Price: price("15.00"), IsAvailable: true},
			{VendorID: vendor.ID, Title: "Midnight ramen", Type: model.ListingTypeFood, Price: price("4.50"), IsAvailable: true},
			{VendorID: vendor.ID, Title: "Custom hoodie printing", Type: model.ListingTypeService, IsAvailable: true},
		}
		for i := range listings {
			if err := tx.Create(&listings[i]).Error; err != nil {
				logger.Error("Failed to create demo listing", err, map[string]interface{}{
					"title": listings[i].Title,
				})
				return err
			}
		}

		logger.Info("Demo data seeded successfully", map[string]interface{}{
			"vendor_id":      vendor.ID,
			"listings_count": len(listings),
		})
		return nil
	})
}
