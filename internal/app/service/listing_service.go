package service

import (
	"errors"
	"strings"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/repository"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrInvalidListing  = errors.New("invalid listing data")
)

const maxListingImages = 10

// ListingQuery is the public catalogue query.
type ListingQuery struct {
	Search   string
	Type     string
	VendorID *uint
	SortBy   string
	Page     int
	PageSize int
}

type CreateListingInput struct {
	VendorID    uint             `json:"business_id" binding:"required"`
	Title       string           `json:"title" binding:"required,max=200"`
	Description string           `json:"description" binding:"max=5000"`
	Type        string           `json:"type" binding:"required"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	IsAvailable *bool            `json:"is_available"`
	Images      []string         `json:"images"`
}

// UpdateListingInput applies only the fields that are set. ClearPrice and ClearStock
// switch a listing to "contact for price" and untracked stock.
type UpdateListingInput struct {
	Title       *string          `json:"title" binding:"omitempty,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=5000"`
	Type        *string          `json:"type"`
	Price       *decimal.Decimal `json:"price"`
	ClearPrice  bool             `json:"clear_price"`
	Stock       *int             `json:"stock"`
	ClearStock  bool             `json:"clear_stock"`
	IsAvailable *bool            `json:"is_available"`
	Images      *[]string        `json:"images"`
}

type ListingService interface {
	Search(query ListingQuery) ([]model.Listing, int64, error)
	GetListing(actor *Actor, listingID uint) (*model.Listing, error)
	ListByVendor(actor *Actor, vendorID uint) ([]model.Listing, error)

	CreateListing(actor Actor, input CreateListingInput) (*model.Listing, error)
	UpdateListing(actor Actor, listingID uint, input UpdateListingInput) (*model.Listing, error)
	DeleteListing(actor Actor, listingID uint) error
}

type listingService struct {
	listingRepo repository.ListingRepository
	vendorRepo  repository.VendorRepository
}

func NewListingService(listingRepo repository.ListingRepository, vendorRepo repository.VendorRepository) ListingService {
	return &listingService{
		listingRepo: listingRepo,
		vendorRepo:  vendorRepo,
	}
}

// Search only ever returns visible listings; the predicates are applied in SQL.
func (s *listingService) Search(query ListingQuery) ([]model.Listing, int64, error) {
	filter := repository.ListingFilter{
		Search:   strings.TrimSpace(query.Search),
		VendorID: query.VendorID,
		SortBy:   repository.ListingSortNewest,
	}

	if query.Type != "" {
		t := model.ListingType(strings.ToUpper(query.Type))
		if !t.Valid() {
			return nil, 0, ErrInvalidListing
		}
		filter.Type = &t
	}

	switch repository.ListingSort(query.SortBy) {
	case repository.ListingSortPriceAsc, repository.ListingSortPriceDesc:
		filter.SortBy = repository.ListingSort(query.SortBy)
	}

	filter.Limit, filter.Offset = Page(query.Page, query.PageSize)
	return s.listingRepo.FindVisible(filter)
}

// GetListing hides non-visible listings from everyone except members of the owning vendor.
func (s *listingService) GetListing(actor *Actor, listingID uint) (*model.Listing, error) {
	listing, err := s.findListing(listingID)
	if err != nil {
		return nil, err
	}
	if listing.IsVisible() {
		return listing, nil
	}

	if actor != nil {
		role, err := roleOf(s.vendorRepo, actor.UserID, listing.VendorID)
		if err != nil {
			return nil, err
		}
		if role.IsMember() {
			return listing, nil
		}
	}

	logger.Debug("Hidden listing requested by non-member", map[string]interface{}{
		"listing_id": listingID,
	})
	return nil, ErrListingNotFound
}

// ListByVendor returns every listing to vendor members and only visible ones to others.
func (s *listingService) ListByVendor(actor *Actor, vendorID uint) ([]model.Listing, error) {
	if actor != nil {
		role, err := roleOf(s.vendorRepo, actor.UserID, vendorID)
		if err != nil {
			return nil, err
		}
		if role.IsMember() {
			return s.listingRepo.FindByVendorID(vendorID)
		}
	}

	listings, _, err := s.listingRepo.FindVisible(repository.ListingFilter{
		VendorID: &vendorID,
		SortBy:   repository.ListingSortNewest,
	})
	return listings, err
}

// CreateListing requires membership first, then an approved vendor.
func (s *listingService) CreateListing(actor Actor, input CreateListingInput) (*model.Listing, error) {
	vendor, err := s.vendorRepo.FindByID(input.VendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, err
	}

	if !model.RoleOf(vendor.Members, actor.UserID).IsMember() {
		logger.Warn("Listing creation rejected: not a vendor member", map[string]interface{}{
			"user_id":   actor.UserID,
			"vendor_id": vendor.ID,
		})
		return nil, ErrForbidden
	}
	if !vendor.IsApproved() {
		logger.Warn("Listing creation rejected: vendor not approved", map[string]interface{}{
			"vendor_id": vendor.ID,
			"status":    vendor.Status,
		})
		return nil, ErrVendorNotApproved
	}

	listingType := model.ListingType(strings.ToUpper(input.Type))
	listing := &model.Listing{
		VendorID:    vendor.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Type:        listingType,
		Price:       input.Price,
		Stock:       input.Stock,
		IsAvailable: true,
		Images:      model.StringArray(input.Images),
	}
	if input.IsAvailable != nil {
		listing.IsAvailable = *input.IsAvailable
	}
	if err := validateListing(listing); err != nil {
		return nil, err
	}

	if err := s.listingRepo.Create(listing); err != nil {
		logger.Error("Failed to create listing", err, map[string]interface{}{
			"vendor_id": vendor.ID,
		})
		return nil, err
	}
	listing.Vendor = vendor

	logger.Info("Listing created", map[string]interface{}{
		"listing_id": listing.ID,
		"vendor_id":  vendor.ID,
		"user_id":    actor.UserID,
	})
	return listing, nil
}

func (s *listingService) UpdateListing(actor Actor, listingID uint, input UpdateListingInput) (*model.Listing, error) {
	listing, err := s.findListing(listingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(actor, listing.VendorID); err != nil {
		return nil, err
	}

	if input.Title != nil {
		listing.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		listing.Description = strings.TrimSpace(*input.Description)
	}
	if input.Type != nil {
		listing.Type = model.ListingType(strings.ToUpper(*input.Type))
	}
	if input.ClearPrice {
		listing.Price = nil
	} else if input.Price != nil {
		listing.Price = input.Price
	}
	if input.ClearStock {
		listing.Stock = nil
	} else if input.Stock != nil {
		listing.Stock = input.Stock
	}
	if input.IsAvailable != nil {
		listing.IsAvailable = *input.IsAvailable
	}
	if input.Images != nil {
		listing.Images = model.StringArray(*input.Images)
	}

	if err := validateListing(listing); err != nil {
		return nil, err
	}
	if err := s.listingRepo.Update(listing); err != nil {
		return nil, err
	}

	logger.Info("Listing updated", map[string]interface{}{
		"listing_id": listing.ID,
		"user_id":    actor.UserID,
	})
	return listing, nil
}

// DeleteListing removes the listing together with its orders, reviews and wishlist entries.
func (s *listingService) DeleteListing(actor Actor, listingID uint) error {
	listing, err := s.findListing(listingID)
	if err != nil {
		return err
	}
	if err := s.requireMember(actor, listing.VendorID); err != nil {
		return err
	}

	if err := s.listingRepo.Delete(listingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}

	logger.Info("Listing deleted", map[string]interface{}{
		"listing_id": listingID,
		"user_id":    actor.UserID,
	})
	return nil
}

func (s *listingService) findListing(id uint) (*model.Listing, error) {
	listing, err := s.listingRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}

func (s *listingService) requireMember(actor Actor, vendorID uint) error {
	role, err := roleOf(s.vendorRepo, actor.UserID, vendorID)
	if err != nil {
		return err
	}
	if !role.IsMember() {
		return ErrForbidden
	}
	return nil
}

func validateListing(l *model.Listing) error {
	if l.Title == "" || !l.Type.Valid() {
		return ErrInvalidListing
	}
	if l.Price != nil && l.Price.IsNegative() {
		return ErrInvalidListing
	}
	if l.Stock != nil && *l.Stock < 0 {
		return ErrInvalidListing
	}
	if len(l.Images) > maxListingImages {
		return ErrInvalidListing
	}
	for _, img := range l.Images {
		if !strings.HasPrefix(img, "https://") && !strings.HasPrefix(img, "http://") {
			return ErrInvalidListing
		}
	}
	return nil
}
