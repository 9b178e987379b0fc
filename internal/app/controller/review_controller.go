package controller

import (
	"net/http"

	"github.com/campusmarket/campusmarket-backend/internal/app/service"
	apperrors "github.com/campusmarket/campusmarket-backend/internal/errors"
	"github.com/campusmarket/campusmarket-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	reviewService service.ReviewService
}

func NewReviewController(reviewService service.ReviewService) *ReviewController {
	return &ReviewController{
		reviewService: reviewService,
	}
}

// CreateReview
// POST /api/v1/reviews
func (ctrl *ReviewController) CreateReview(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var input service.SubmitReviewInput
	if !bindJSON(c, &input) {
		return
	}

	review, err := ctrl.reviewService.SubmitReview(actor, input)
	if err != nil {
		handleServiceError(c, err, "Submit review", map[string]interface{}{
			"user_id":    actor.UserID,
			"listing_id": input.ListingID,
		})
		return
	}

	log.Info("Review submitted", map[string]interface{}{
		"user_id":    actor.UserID,
		"listing_id": review.ListingID,
		"rating":     review.Rating,
	})

	apperrors.RespondWithData(c, http.StatusCreated, gin.H{"review": review})
}

// GetListingReviews returns a page of reviews and the rating summary
// GET /api/v1/listings/:id/reviews
func (ctrl *ReviewController) GetListingReviews(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	result, err := ctrl.reviewService.ListReviews(optionalActor(c), id, page, pageSize)
	if err != nil {
		handleServiceError(c, err, "List reviews", map[string]interface{}{
			"listing_id": id,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{
		"reviews":   result.Reviews,
		"total":     result.Total,
		"summary":   result.Summary,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetReviewEligibility
// GET /api/v1/listings/:id/reviews/eligibility
func (ctrl *ReviewController) GetReviewEligibility(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	eligible, err := ctrl.reviewService.CanReview(actor, id)
	if err != nil {
		handleServiceError(c, err, "Check review eligibility", map[string]interface{}{
			"user_id":    actor.UserID,
			"listing_id": id,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"can_review": eligible})
}
