package repository

import (
	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(review *model.Review) error
	Exists(listingID, userID uint) (bool, error)
	FindByListingID(listingID uint, limit, offset int) ([]model.Review, int64, error)
	SummaryByListingID(listingID uint) (model.RatingSummary, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(review *model.Review) error {
	logger.Debug("Creating review in database", map[string]interface{}{
		"listing_id": review.ListingID,
		"user_id":    review.UserID,
		"rating":     review.Rating,
	})

	if err := r.db.Omit("User", "Listing").Create(review).Error; err != nil {
		logger.Error("Failed to create review in database", err, map[string]interface{}{
			"listing_id": review.ListingID,
			"user_id":    review.UserID,
		})
		return err
	}
	return nil
}

func (r *reviewRepository) Exists(listingID, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Review{}).
		Where("listing_id = ? AND user_id = ?", listingID, userID).
		Count(&count).Error; err != nil {
		logger.Error("Failed to check review existence", err, map[string]interface{}{
			"listing_id": listingID,
			"user_id":    userID,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *reviewRepository) FindByListingID(listingID uint, limit, offset int) ([]model.Review, int64, error) {
	var reviews []model.Review
	var total int64

	if err := r.db.Model(&model.Review{}).Where("listing_id = ?", listingID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Where("listing_id = ?", listingID).
		Preload("User").
		Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&reviews).Error; err != nil {
		logger.Error("Failed to find reviews by listing", err, map[string]interface{}{
			"listing_id": listingID,
		})
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *reviewRepository) SummaryByListingID(listingID uint) (model.RatingSummary, error) {
	var summary model.RatingSummary
	err := r.db.Model(&model.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("listing_id = ?", listingID).
		Scan(&summary).Error
	if err != nil {
		logger.Error("Failed to summarize reviews", err, map[string]interface{}{
			"listing_id": listingID,
		})
	}
	return summary, err
}
