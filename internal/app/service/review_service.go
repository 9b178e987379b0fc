package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/repository"
	apperrors "github.com/campusmarket/campusmarket-backend/internal/errors"
	"github.com/campusmarket/campusmarket-backend/pkg/events"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"github.com/campusmarket/campusmarket-backend/pkg/metrics"
	"gorm.io/gorm"
)

var (
	ErrDuplicateReview = errors.New("user has already reviewed this listing")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
)

type SubmitReviewInput struct {
	ListingID uint    `json:"listing_id" binding:"required"`
	Rating    int     `json:"rating"`
	Comment   *string `json:"comment" binding:"omitempty,max=2000"`
}

// ListingReviews is one page of reviews plus the summary over all of them.
type ListingReviews struct {
	Reviews []model.Review      `json:"reviews"`
	Total   int64               `json:"total"`
	Summary model.RatingSummary `json:"summary"`
}

type ReviewService interface {
	CanReview(actor Actor, listingID uint) (bool, error)
	SubmitReview(actor Actor, input SubmitReviewInput) (*model.Review, error)
	ListReviews(actor *Actor, listingID uint, page, pageSize int) (*ListingReviews, error)
}

type reviewService struct {
	reviewRepo    repository.ReviewRepository
	listingRepo   repository.ListingRepository
	vendorRepo    repository.VendorRepository
	notifications NotificationService
	publisher     events.Publisher
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	listingRepo repository.ListingRepository,
	vendorRepo repository.VendorRepository,
	notifications NotificationService,
	publisher events.Publisher,
) ReviewService {
	return &reviewService{
		reviewRepo:    reviewRepo,
		listingRepo:   listingRepo,
		vendorRepo:    vendorRepo,
		notifications: notifications,
		publisher:     publisher,
	}
}

// CanReview is true iff the actor has not reviewed the listing yet.
func (s *reviewService) CanReview(actor Actor, listingID uint) (bool, error) {
	if _, err := s.findListing(&actor, listingID); err != nil {
		return false, err
	}
	exists, err := s.reviewRepo.Exists(listingID, actor.UserID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// SubmitReview does not require a prior order for the listing.
func (s *reviewService) SubmitReview(actor Actor, input SubmitReviewInput) (*model.Review, error) {
	listing, err := s.findListing(&actor, input.ListingID)
	if err != nil {
		return nil, err
	}

	exists, err := s.reviewRepo.Exists(listing.ID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Warn("Review rejected: duplicate", map[string]interface{}{
			"user_id":    actor.UserID,
			"listing_id": listing.ID,
		})
		return nil, ErrDuplicateReview
	}
	if input.Rating < model.MinRating || input.Rating > model.MaxRating {
		return nil, ErrInvalidRating
	}

	review := &model.Review{
		ListingID: listing.ID,
		UserID:    actor.UserID,
		VendorID:  listing.VendorID,
		Rating:    input.Rating,
	}
	if input.Comment != nil {
		if comment := strings.TrimSpace(*input.Comment); comment != "" {
			review.Comment = &comment
		}
	}

	if err := s.reviewRepo.Create(review); err != nil {
		// a concurrent submission won the race for the unique index
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrDuplicateReview
		}
		logger.Error("Failed to create review", err, map[string]interface{}{
			"user_id":    actor.UserID,
			"listing_id": listing.ID,
		})
		return nil, err
	}

	metrics.ReviewsSubmitted.Inc()
	logger.Info("Review submitted", map[string]interface{}{
		"review_id":  review.ID,
		"listing_id": listing.ID,
		"rating":     review.Rating,
	})

	memberIDs, err := s.vendorRepo.FindMemberUserIDs(listing.VendorID)
	if err == nil {
		s.notifications.Notify(memberIDs, model.Notification{
			Type:             model.NotificationTypeReviewReceived,
			Title:            "New review",
			Content:          fmt.Sprintf("%s received a %d-star review", listing.Title, review.Rating),
			Link:             fmt.Sprintf("/listings/%d", listing.ID),
			RelatedListingID: &listing.ID,
			RelatedVendorID:  &listing.VendorID,
		})
	}
	publishEvent(s.publisher, events.New(events.ReviewSubmitted, fmt.Sprintf("listing-%d", listing.ID), map[string]interface{}{
		"review_id":  review.ID,
		"listing_id": listing.ID,
		"vendor_id":  listing.VendorID,
		"rating":     review.Rating,
	}))

	return review, nil
}

func (s *reviewService) ListReviews(actor *Actor, listingID uint, page, pageSize int) (*ListingReviews, error) {
	if _, err := s.findListing(actor, listingID); err != nil {
		return nil, err
	}

	limit, offset := Page(page, pageSize)
	reviews, total, err := s.reviewRepo.FindByListingID(listingID, limit, offset)
	if err != nil {
		return nil, err
	}
	summary, err := s.reviewRepo.SummaryByListingID(listingID)
	if err != nil {
		return nil, err
	}

	return &ListingReviews{
		Reviews: reviews,
		Total:   total,
		Summary: summary,
	}, nil
}

// findListing applies the same visibility rule as GetListing: hidden listings
// exist only for members of the owning vendor.
func (s *reviewService) findListing(actor *Actor, id uint) (*model.Listing, error) {
	listing, err := s.listingRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
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
	return nil, ErrListingNotFound
}
