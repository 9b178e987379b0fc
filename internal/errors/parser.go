package errors

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a classified error ready for a response envelope.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError classifies database errors into codes without leaking driver details.
// context names the operation, e.g. "create listing".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	errStrLower := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	if IsUniqueViolation(err) {
		return parseDuplicateKeyError(errStrLower)
	}

	if errors.Is(err, gorm.ErrForeignKeyViolated) || strings.Contains(errStrLower, "foreign key constraint") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "Referenced data does not exist or is still in use",
		}
	}

	if strings.Contains(errStrLower, "not null constraint") || strings.Contains(errStrLower, "violates not-null constraint") {
		return ErrorInfo{
			Code:    ValidationRequired,
			Message: "A required field is missing",
		}
	}

	if strings.Contains(errStrLower, "check constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "Input is not valid",
		}
	}

	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "An upstream service is unavailable. Please try again later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

// IsUniqueViolation recognizes unique-index failures across postgres, mysql, sqlite and sqlserver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "duplicate entry") ||
		strings.Contains(s, "unique constraint") ||
		strings.Contains(s, "unique key constraint")
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "reviews") || strings.Contains(errLower, "idx_review_listing_user"):
		return ErrorInfo{Code: ReviewAlreadyExists, Message: "You have already reviewed this listing"}
	case strings.Contains(errLower, "vendor_members") || strings.Contains(errLower, "idx_vendor_member"):
		return ErrorInfo{Code: VendorMemberExists, Message: "User is already a member of this business"}
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "Email is already in use"}
	case strings.Contains(errLower, "slug"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Business identifier is already taken"}
	}
	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "Resource already exists",
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "listing"):
		return "Listing not found"
	case strings.Contains(contextLower, "order"):
		return "Order not found"
	case strings.Contains(contextLower, "vendor"), strings.Contains(contextLower, "business"):
		return "Business not found"
	case strings.Contains(contextLower, "review"):
		return "Review not found"
	case strings.Contains(contextLower, "user"):
		return "User not found"
	case strings.Contains(contextLower, "notification"):
		return "Notification not found"
	}
	return "Requested resource not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"):
		return "Failed to create. Please try again later"
	case strings.Contains(contextLower, "update"):
		return "Failed to update. Please try again later"
	case strings.Contains(contextLower, "delete"):
		return "Failed to delete. Please try again later"
	}
	return "Something went wrong. Please try again later"
}

// Status is the HTTP status matching the classified code.
func (e ErrorInfo) Status() int {
	switch e.Code {
	case ResourceNotFound:
		return http.StatusNotFound
	case ResourceAlreadyExists, ResourceConflict, ReviewAlreadyExists, VendorMemberExists, AuthEmailAlreadyExists:
		return http.StatusConflict
	case ValidationRequired, ValidationInvalidInput:
		return http.StatusBadRequest
	case InternalExternalAPI:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ParseAndRespond classifies err and writes the failure envelope with the matching status.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(errorInfo.Status(), ErrorResponse{
		Success: false,
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
