package controller

import (
	"net/http"

	"github.com/campusmarket/campusmarket-backend/internal/app/service"
	apperrors "github.com/campusmarket/campusmarket-backend/internal/errors"
	"github.com/campusmarket/campusmarket-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type WishlistController struct {
	wishlistService service.WishlistService
}

func NewWishlistController(wishlistService service.WishlistService) *WishlistController {
	return &WishlistController{
		wishlistService: wishlistService,
	}
}

type AddToWishlistRequest struct {
	ListingID uint `json:"listing_id" binding:"required"`
}

// GetWishlist
// GET /api/v1/wishlist
func (ctrl *WishlistController) GetWishlist(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	items, err := ctrl.wishlistService.GetWishlist(actor)
	if err != nil {
		handleServiceError(c, err, "Fetch wishlist", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// AddToWishlist is idempotent
// POST /api/v1/wishlist
func (ctrl *WishlistController) AddToWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req AddToWishlistRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := ctrl.wishlistService.Add(actor, req.ListingID)
	if err != nil {
		handleServiceError(c, err, "Add to wishlist", map[string]interface{}{
			"user_id":    actor.UserID,
			"listing_id": req.ListingID,
		})
		return
	}

	log.Info("Listing wishlisted", map[string]interface{}{
		"user_id":    actor.UserID,
		"listing_id": req.ListingID,
	})

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"item": item})
}

// ToggleWishlist
// POST /api/v1/wishlist/:listing_id/toggle
func (ctrl *WishlistController) ToggleWishlist(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	listingID, ok := parseIDParam(c, "listing_id")
	if !ok {
		return
	}

	wishlisted, err := ctrl.wishlistService.Toggle(actor, listingID)
	if err != nil {
		handleServiceError(c, err, "Toggle wishlist", map[string]interface{}{
			"user_id":    actor.UserID,
			"listing_id": listingID,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{
		"listing_id": listingID,
		"wishlisted": wishlisted,
	})
}
