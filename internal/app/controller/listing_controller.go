package controller

import (
	"net/http"
	"strconv"

	"github.com/campusmarket/campusmarket-backend/internal/app/service"
	apperrors "github.com/campusmarket/campusmarket-backend/internal/errors"
	"github.com/campusmarket/campusmarket-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ListingController struct {
	listingService service.ListingService
}

func NewListingController(listingService service.ListingService) *ListingController {
	return &ListingController{
		listingService: listingService,
	}
}

// GetListings returns the public catalogue
// GET /api/v1/listings?search=&type=&business_id=&sort_by=&page=&page_size=
func (ctrl *ListingController) GetListings(c *gin.Context) {
	page, pageSize := pageParams(c)
	query := service.ListingQuery{
		Search:   c.Query("search"),
		Type:     c.Query("type"),
		SortBy:   c.Query("sort_by"),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := c.Query("business_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid business_id")
			return
		}
		vendorID := uint(id)
		query.VendorID = &vendorID
	}

	listings, total, err := ctrl.listingService.Search(query)
	if err != nil {
		handleServiceError(c, err, "Search listings", map[string]interface{}{
			"search": query.Search,
			"type":   query.Type,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{
		"listings":  listings,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetListing returns one listing; hidden listings are only shown to their vendor's members
// GET /api/v1/listings/:id
func (ctrl *ListingController) GetListing(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	listing, err := ctrl.listingService.GetListing(optionalActor(c), id)
	if err != nil {
		handleServiceError(c, err, "Get listing", map[string]interface{}{
			"listing_id": id,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"listing": listing})
}

// CreateListing
// POST /api/v1/listings
func (ctrl *ListingController) CreateListing(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var input service.CreateListingInput
	if !bindJSON(c, &input) {
		return
	}

	listing, err := ctrl.listingService.CreateListing(actor, input)
	if err != nil {
		handleServiceError(c, err, "Create listing", map[string]interface{}{
			"user_id":     actor.UserID,
			"business_id": input.VendorID,
		})
		return
	}

	log.Info("Listing created", map[string]interface{}{
		"user_id":     actor.UserID,
		"listing_id":  listing.ID,
		"business_id": listing.VendorID,
	})

	apperrors.RespondWithData(c, http.StatusCreated, gin.H{"listing": listing})
}

// UpdateListing
// PATCH /api/v1/listings/:id
func (ctrl *ListingController) UpdateListing(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.UpdateListingInput
	if !bindJSON(c, &input) {
		return
	}

	listing, err := ctrl.listingService.UpdateListing(actor, id, input)
	if err != nil {
		handleServiceError(c, err, "Update listing", map[string]interface{}{
			"user_id":    actor.UserID,
			"listing_id": id,
		})
		return
	}

	log.Info("Listing updated", map[string]interface{}{
		"user_id":    actor.UserID,
		"listing_id": id,
	})

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"listing": listing})
}

// DeleteListing removes the listing and every row that references it
// DELETE /api/v1/listings/:id
func (ctrl *ListingController) DeleteListing(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.listingService.DeleteListing(actor, id); err != nil {
		handleServiceError(c, err, "Delete listing", map[string]interface{}{
			"user_id":    actor.UserID,
			"listing_id": id,
		})
		return
	}

	log.Info("Listing deleted", map[string]interface{}{
		"user_id":    actor.UserID,
		"listing_id": id,
	})

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"message": "Listing deleted"})
}
