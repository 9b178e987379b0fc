package controller

import (
	"net/http"
	"strings"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/service"
	apperrors "github.com/campusmarket/campusmarket-backend/internal/errors"
	"github.com/campusmarket/campusmarket-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// VendorController serves the /businesses routes.
type VendorController struct {
	vendorService  service.VendorService
	listingService service.ListingService
	orderService   service.OrderService
}

func NewVendorController(vendorService service.VendorService, listingService service.ListingService, orderService service.OrderService) *VendorController {
	return &VendorController{
		vendorService:  vendorService,
		listingService: listingService,
		orderService:   orderService,
	}
}

// UpdateVendorRequest either changes the approval status (admins) or edits the profile (members).
type UpdateVendorRequest struct {
	Status      *model.VendorStatus `json:"status"`
	Name        *string             `json:"name" binding:"omitempty,max=100"`
	Description *string             `json:"description" binding:"omitempty,max=2000"`
}

type AddMemberRequest struct {
	Email string           `json:"email" binding:"required,email"`
	Role  model.MemberRole `json:"role"`
}

// CreateVendor registers a business owned by the caller; it starts PENDING
// POST /api/v1/businesses
func (ctrl *VendorController) CreateVendor(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var input service.CreateVendorInput
	if !bindJSON(c, &input) {
		return
	}

	vendor, err := ctrl.vendorService.CreateVendor(actor, input)
	if err != nil {
		handleServiceError(c, err, "Create business", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	log.Info("Business created", map[string]interface{}{
		"user_id":     actor.UserID,
		"business_id": vendor.ID,
	})

	apperrors.RespondWithData(c, http.StatusCreated, gin.H{"business": vendor})
}

// GetMyVendors
// GET /api/v1/businesses/mine
func (ctrl *VendorController) GetMyVendors(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	vendors, err := ctrl.vendorService.ListMine(actor)
	if err != nil {
		handleServiceError(c, err, "List my businesses", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{
		"businesses": vendors,
		"count":      len(vendors),
	})
}

// GetVendors lists every business for moderation
// GET /api/v1/businesses?status=PENDING
func (ctrl *VendorController) GetVendors(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var status *model.VendorStatus
	if raw := c.Query("status"); raw != "" {
		s := model.VendorStatus(strings.ToUpper(raw))
		if !s.Valid() {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid status filter")
			return
		}
		status = &s
	}
	page, pageSize := pageParams(c)

	vendors, total, err := ctrl.vendorService.ListAll(actor, status, page, pageSize)
	if err != nil {
		handleServiceError(c, err, "List businesses", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{
		"businesses": vendors,
		"total":      total,
		"page":       page,
		"page_size":  pageSize,
	})
}

// GetVendor
// GET /api/v1/businesses/:id
func (ctrl *VendorController) GetVendor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	vendor, err := ctrl.vendorService.GetVendor(optionalActor(c), id)
	if err != nil {
		handleServiceError(c, err, "Get business", map[string]interface{}{
			"business_id": id,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"business": vendor})
}

// UpdateVendor
// PATCH /api/v1/businesses/:id
func (ctrl *VendorController) UpdateVendor(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateVendorRequest
	if !bindJSON(c, &req) {
		return
	}

	fields := map[string]interface{}{
		"user_id":     actor.UserID,
		"business_id": id,
	}

	if req.Status != nil {
		if req.Name != nil || req.Description != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Status cannot be changed together with other fields")
			return
		}
		status := model.VendorStatus(strings.ToUpper(string(*req.Status)))
		vendor, err := ctrl.vendorService.SetVendorStatus(actor, id, status)
		if err != nil {
			handleServiceError(c, err, "Set business status", fields)
			return
		}
		log.Info("Business status changed", mergeFields(fields, map[string]interface{}{
			"status": vendor.Status,
		}))
		apperrors.RespondWithData(c, http.StatusOK, gin.H{"business": vendor})
		return
	}

	vendor, err := ctrl.vendorService.UpdateVendor(actor, id, service.UpdateVendorInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(c, err, "Update business", fields)
		return
	}

	log.Info("Business updated", fields)
	apperrors.RespondWithData(c, http.StatusOK, gin.H{"business": vendor})
}

// GetVendorListings returns all listings to members and the visible ones to everyone else
// GET /api/v1/businesses/:id/listings
func (ctrl *VendorController) GetVendorListings(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	listings, err := ctrl.listingService.ListByVendor(optionalActor(c), id)
	if err != nil {
		handleServiceError(c, err, "List business listings", map[string]interface{}{
			"business_id": id,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
	})
}

// GetVendorOrders
// GET /api/v1/businesses/:id/orders?status=PENDING
func (ctrl *VendorController) GetVendorOrders(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var status *model.OrderStatus
	if raw := c.Query("status"); raw != "" {
		s := model.OrderStatus(strings.ToUpper(raw))
		status = &s
	}

	orders, err := ctrl.orderService.ListVendorOrders(actor, id, status)
	if err != nil {
		handleServiceError(c, err, "List business orders", map[string]interface{}{
			"user_id":     actor.UserID,
			"business_id": id,
		})
		return
	}

	apperrors.RespondWithData(c, http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// AddMember
// POST /api/v1/businesses/:id/members
func (ctrl *VendorController) AddMember(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := ctrl.vendorService.AddMember(actor, id, req.Email, model.MemberRole(strings.ToUpper(string(req.Role))))
	if err != nil {
		handleServiceError(c, err, "Add member", map[string]interface{}{
			"user_id":     actor.UserID,
			"business_id": id,
		})
		return
	}

	log.Info("Member added", map[string]interface{}{
		"user_id":     actor.UserID,
		"business_id": id,
		"member_id":   member.UserID,
		"role":        member.Role,
	})

	apperrors.RespondWithData(c, http.StatusCreated, gin.H{"member": member})
}

// RemoveMember
// DELETE /api/v1/businesses/:id/members/:user_id
func (ctrl *VendorController) RemoveMember(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	if err := ctrl.vendorService.RemoveMember(actor, id, memberID); err != nil {
		handleServiceError(c, err, "Remove member", map[string]interface{}{
			"user_id":     actor.UserID,
			"business_id": id,
			"member_id":   memberID,
		})
		return
	}

	log.Info("Member removed", map[string]interface{}{
		"user_id":     actor.UserID,
		"business_id": id,
		"member_id":   memberID,
	})

	apperrors.RespondWithData(c, http.StatusOK, gin.H{"message": "Member removed"})
}
