package service

import (
	"errors"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/repository"
	apperrors "github.com/campusmarket/campusmarket-backend/internal/errors"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"gorm.io/gorm"
)

type WishlistService interface {
	GetWishlist(actor Actor) ([]model.WishlistItem, error)
	Add(actor Actor, listingID uint) (*model.WishlistItem, error)
	// Toggle adds the listing when absent and removes it when present.
	// The returned bool is the new state.
	Toggle(actor Actor, listingID uint) (bool, error)
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	listingRepo  repository.ListingRepository
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, listingRepo repository.ListingRepository) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		listingRepo:  listingRepo,
	}
}

func (s *wishlistService) GetWishlist(actor Actor) ([]model.WishlistItem, error) {
	return s.wishlistRepo.FindByUserID(actor.UserID)
}

// Add is idempotent. Only visible listings can be added.
func (s *wishlistService) Add(actor Actor, listingID uint) (*model.WishlistItem, error) {
	if err := s.requireVisible(listingID); err != nil {
		return nil, err
	}

	existing, err := s.wishlistRepo.FindByUserAndListing(actor.UserID, listingID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	item := &model.WishlistItem{UserID: actor.UserID, ListingID: listingID}
	if err := s.wishlistRepo.Create(item); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return s.wishlistRepo.FindByUserAndListing(actor.UserID, listingID)
		}
		return nil, err
	}
	return item, nil
}

func (s *wishlistService) Toggle(actor Actor, listingID uint) (bool, error) {
	_, err := s.wishlistRepo.FindByUserAndListing(actor.UserID, listingID)
	switch {
	case err == nil:
		if err := s.wishlistRepo.Delete(actor.UserID, listingID); err != nil {
			return true, err
		}
		logger.Debug("Listing removed from wishlist", map[string]interface{}{
			"user_id":    actor.UserID,
			"listing_id": listingID,
		})
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if _, err := s.Add(actor, listingID); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, err
	}
}

func (s *wishlistService) requireVisible(listingID uint) error {
	listing, err := s.listingRepo.FindByID(listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	if !listing.IsVisible() {
		return ErrListingNotFound
	}
	return nil
}
