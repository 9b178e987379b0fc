package repository

import (
	"strings"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"gorm.io/gorm"
)

type ListingSort string

const (
	ListingSortNewest    ListingSort = "newest"
	ListingSortPriceAsc  ListingSort = "price_asc"
	ListingSortPriceDesc ListingSort = "price_desc"
)

// ListingFilter narrows the public catalogue. Visibility predicates are always applied.
type ListingFilter struct {
	Search   string
	Type     *model.ListingType
	VendorID *uint
	SortBy   ListingSort
	Limit    int
	Offset   int
}

type ListingRepository interface {
	Create(listing *model.Listing) error
	FindByID(id uint) (*model.Listing, error)
	FindVisible(filter ListingFilter) ([]model.Listing, int64, error)
	FindByVendorID(vendorID uint) ([]model.Listing, error)
	CountVisible() (int64, error)
	Update(listing *model.Listing) error
	Delete(id uint) error
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(listing *model.Listing) error {
	logger.Debug("Creating listing in database", map[string]interface{}{
		"vendor_id": listing.VendorID,
		"title":     listing.Title,
		"type":      listing.Type,
	})

	if err := r.db.Omit("Vendor").Create(listing).Error; err != nil {
		logger.Error("Failed to create listing in database", err, map[string]interface{}{
			"vendor_id": listing.VendorID,
			"title":     listing.Title,
		})
		return err
	}

	logger.Debug("Listing created in database", map[string]interface{}{
		"listing_id": listing.ID,
		"vendor_id":  listing.VendorID,
	})
	return nil
}

func (r *listingRepository) FindByID(id uint) (*model.Listing, error) {
	logger.Debug("Finding listing by ID in database", map[string]interface{}{
		"listing_id": id,
	})

	var listing model.Listing
	if err := r.db.Preload("Vendor").First(&listing, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find listing by ID in database", err, map[string]interface{}{
				"listing_id": id,
			})
		}
		return nil, err
	}
	return &listing, nil
}

// likeEscaper makes user text match literally inside LIKE. MySQL treats a backslash
// in a string literal as an escape, so '!' is the escape character.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// priceUnsetLast keeps "contact for price" listings at the end in both directions.
const priceUnsetLast = "CASE WHEN listings.price IS NULL THEN 1 ELSE 0 END"

// visibleQuery joins vendors so that hidden listings never leave the database.
func (r *listingRepository) visibleQuery(filter ListingFilter) *gorm.DB {
	query := r.db.Model(&model.Listing{}).
		Joins("JOIN vendors ON vendors.id = listings.vendor_id").
		Where("vendors.status = ?", model.VendorStatusApproved).
		Where("listings.is_available = ?", true)

	if filter.Type != nil {
		query = query.Where("listings.type = ?", *filter.Type)
	}
	if filter.VendorID != nil {
		query = query.Where("listings.vendor_id = ?", *filter.VendorID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		query = query.Where("(LOWER(listings.title) LIKE ? ESCAPE '!' OR LOWER(listings.description) LIKE ? ESCAPE '!')", like, like)
	}
	return query
}

func (r *listingRepository) FindVisible(filter ListingFilter) ([]model.Listing, int64, error) {
	logger.Debug("Finding visible listings", map[string]interface{}{
		"search":    filter.Search,
		"type":      filter.Type,
		"vendor_id": filter.VendorID,
		"sort_by":   filter.SortBy,
		"limit":     filter.Limit,
		"offset":    filter.Offset,
	})

	var total int64
	if err := r.visibleQuery(filter).Count(&total).Error; err != nil {
		logger.Error("Failed to count visible listings", err)
		return nil, 0, err
	}

	query := r.visibleQuery(filter).Select("listings.*").Preload("Vendor")

	switch filter.SortBy {
	case ListingSortPriceAsc:
		query = query.Order(priceUnsetLast).Order("listings.price ASC").Order("listings.id DESC")
	case ListingSortPriceDesc:
		query = query.Order(priceUnsetLast).Order("listings.price DESC").Order("listings.id DESC")
	default:
		query = query.Order("listings.created_at DESC").Order("listings.id DESC")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var listings []model.Listing
	if err := query.Find(&listings).Error; err != nil {
		logger.Error("Failed to find visible listings", err)
		return nil, 0, err
	}

	logger.Debug("Visible listings found", map[string]interface{}{
		"count": len(listings),
		"total": total,
	})
	return listings, total, nil
}

func (r *listingRepository) FindByVendorID(vendorID uint) ([]model.Listing, error) {
	var listings []model.Listing
	if err := r.db.Where("vendor_id = ?", vendorID).
		Preload("Vendor").
		Order("created_at DESC").
		Find(&listings).Error; err != nil {
		logger.Error("Failed to find listings by vendor", err, map[string]interface{}{
			"vendor_id": vendorID,
		})
		return nil, err
	}
	return listings, nil
}

func (r *listingRepository) CountVisible() (int64, error) {
	var count int64
	err := r.visibleQuery(ListingFilter{}).Count(&count).Error
	return count, err
}

func (r *listingRepository) Update(listing *model.Listing) error {
	logger.Debug("Updating listing in database", map[string]interface{}{
		"listing_id": listing.ID,
	})

	if err := r.db.Omit("Vendor").Save(listing).Error; err != nil {
		logger.Error("Failed to update listing in database", err, map[string]interface{}{
			"listing_id": listing.ID,
		})
		return err
	}
	return nil
}

// Delete removes the listing together with its orders, reviews and wishlist entries.
func (r *listingRepository) Delete(id uint) error {
	logger.Debug("Deleting listing from database", map[string]interface{}{
		"listing_id": id,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&model.Order{}).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", id).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", id).Delete(&model.WishlistItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Listing{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete listing from database", err, map[string]interface{}{
			"listing_id": id,
		})
		return err
	}

	logger.Debug("Listing deleted from database", map[string]interface{}{
		"listing_id": id,
	})
	return nil
}
