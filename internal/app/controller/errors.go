package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/campusmarket/campusmarket-backend/internal/app/service"
	apperrors "github.com/campusmarket/campusmarket-backend/internal/errors"
	"github.com/campusmarket/campusmarket-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors maps service sentinels to HTTP responses. Order matters only for
// readability; the sentinels are disjoint.
var serviceErrors = []errorMapping{
	{service.ErrIdentityUntrusted, http.StatusUnauthorized, apperrors.AuthIdentityUntrusted, "Sign-in proxy is not trusted"},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid refresh token"},
	{service.ErrDomainNotAllowed, http.StatusForbidden, apperrors.AuthDomainNotAllowed, "Sign-in is limited to institutional email addresses"},
	{service.ErrForbidden, http.StatusForbidden, apperrors.AuthzForbidden, "You do not have permission to perform this action"},

	{service.ErrUserNotFound, http.StatusNotFound, apperrors.ResourceNotFound, "User not found"},
	{service.ErrVendorNotFound, http.StatusNotFound, apperrors.VendorNotFound, "Business not found"},
	{service.ErrVendorMemberNotFound, http.StatusNotFound, apperrors.ResourceNotFound, "Member not found"},
	{service.ErrListingNotFound, http.StatusNotFound, apperrors.ListingNotFound, "Listing not found"},
	{service.ErrOrderNotFound, http.StatusNotFound, apperrors.OrderNotFound, "Order not found"},
	{service.ErrNotificationNotFound, http.StatusNotFound, apperrors.NotificationNotFound, "Notification not found"},

	{service.ErrInvalidIdentity, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Identity must carry a provider id and a valid email"},
	{service.ErrInvalidInput, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Invalid input"},
	{service.ErrInvalidListing, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Invalid listing"},
	{service.ErrInvalidVendorStatus, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Invalid business status"},
	{service.ErrInvalidOrderStatus, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Invalid order status"},
	{service.ErrNotPurchasable, http.StatusBadRequest, apperrors.ListingNotPurchasable, "Listing is not available for purchase"},
	{service.ErrInvalidQuantity, http.StatusBadRequest, apperrors.OrderInvalidQuantity, "Invalid quantity"},
	{service.ErrPriceUnset, http.StatusBadRequest, apperrors.ListingPriceUnset, "Listing has no price; contact the seller"},
	{service.ErrInvalidTransition, http.StatusBadRequest, apperrors.OrderInvalidTransition, "Order cannot move to that status"},
	{service.ErrOrderNotCancellable, http.StatusBadRequest, apperrors.OrderInvalidTransition, "Only pending orders can be cancelled"},
	{service.ErrVendorLimitExceeded, http.StatusBadRequest, apperrors.VendorLimitExceeded, "Business membership limit reached"},
	{service.ErrVendorNotApproved, http.StatusBadRequest, apperrors.VendorNotApproved, "Business is not approved yet"},
	{service.ErrLastOwner, http.StatusBadRequest, apperrors.VendorLastOwner, "A business must keep at least one owner"},
	{service.ErrInvalidRating, http.StatusBadRequest, apperrors.ReviewInvalidRating, "Rating must be between 1 and 5"},

	{service.ErrDuplicateReview, http.StatusConflict, apperrors.ReviewAlreadyExists, "You have already reviewed this listing"},
	{service.ErrVendorMemberExists, http.StatusConflict, apperrors.VendorMemberExists, "User is already a member"},
}

// handleServiceError writes the response for err. Errors outside the table are
// logged and classified by apperrors.ParseError.
func handleServiceError(c *gin.Context, err error, action string, fields map[string]interface{}) {
	log := middleware.GetLoggerFromContext(c)

	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			log.Warn(action+" rejected", mergeFields(fields, map[string]interface{}{
				"error": err.Error(),
				"code":  m.code,
			}))
			apperrors.RespondWithError(c, m.status, m.code, m.message)
			return
		}
	}

	log.Error(action+" failed", err, fields)
	apperrors.ParseAndRespond(c, err, action)
}

func mergeFields(a, b map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// requireActor returns the authenticated caller or writes a 401.
func requireActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.GetLoggerFromContext(c).Warn("Unauthenticated access", map[string]interface{}{
			"path": c.Request.URL.Path,
		})
		apperrors.Unauthorized(c, "")
		return service.Actor{}, false
	}
	role, _ := middleware.GetUserRole(c)
	return service.Actor{UserID: userID, Role: role}, true
}

// optionalActor returns the caller for routes that also serve guests.
func optionalActor(c *gin.Context) *service.Actor {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return nil
	}
	role, _ := middleware.GetUserRole(c)
	return &service.Actor{UserID: userID, Role: role}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid ID format", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	return page, pageSize
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		})
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			apperrors.RespondWithValidationError(c, fields)
			return false
		}
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return false
	}
	return true
}
