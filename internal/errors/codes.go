package errors

// Error codes returned in the "error" field of failure envelopes.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map user-facing copy from these.

const (
	// ==================== AUTH_ ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // access token expired
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // malformed or bad signature
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"       // logged out
	AuthDomainNotAllowed   = "AUTH_DOMAIN_NOT_ALLOWED"  // email outside the institutional domain
	AuthIdentityUntrusted  = "AUTH_IDENTITY_UNTRUSTED"  // sign-in proxy secret mismatch
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== AUTHZ_ ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"
	AuthzOwnerOnly = "AUTHZ_OWNER_ONLY"

	// ==================== VALIDATION_ ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== RESOURCE_ ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== VENDOR_ ====================
	VendorNotFound      = "VENDOR_NOT_FOUND"
	VendorNotApproved   = "VENDOR_NOT_APPROVED"
	VendorLimitExceeded = "VENDOR_LIMIT_EXCEEDED"
	VendorMemberExists  = "VENDOR_MEMBER_EXISTS"
	VendorLastOwner     = "VENDOR_LAST_OWNER"

	// ==================== LISTING_ ====================
	ListingNotFound       = "LISTING_NOT_FOUND"
	ListingNotPurchasable = "LISTING_NOT_PURCHASABLE"
	ListingPriceUnset     = "LISTING_PRICE_UNSET"

	// ==================== ORDER_ ====================
	OrderNotFound          = "ORDER_NOT_FOUND"
	OrderInvalidQuantity   = "ORDER_INVALID_QUANTITY"
	OrderInvalidTransition = "ORDER_INVALID_TRANSITION"

	// ==================== REVIEW_ ====================
	ReviewNotFound      = "REVIEW_NOT_FOUND"
	ReviewInvalidRating = "REVIEW_INVALID_RATING"
	ReviewAlreadyExists = "REVIEW_ALREADY_EXISTS"

	// ==================== NOTIFICATION_ ====================
	NotificationNotFound = "NOTIFICATION_NOT_FOUND"

	// ==================== UPLOAD_ ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== INTERNAL_ ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
