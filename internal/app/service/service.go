package service

import (
	"context"
	"errors"
	"time"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/repository"
	"github.com/campusmarket/campusmarket-backend/pkg/events"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"gorm.io/gorm"
)

// Errors shared by several services.
var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uint
	Role   model.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// Page converts 1-based page numbers into limit/offset, clamping the page size.
func Page(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageSize, (page - 1) * pageSize
}

// roleOf is the entitlement check run before every vendor-scoped mutation.
func roleOf(vendorRepo repository.VendorRepository, userID, vendorID uint) (model.MemberRole, error) {
	member, err := vendorRepo.FindMembership(vendorID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.MemberRoleNone, nil
		}
		return model.MemberRoleNone, err
	}
	return member.Role, nil
}

const publishTimeout = 5 * time.Second

// publishEvent hands event to the broker in the background. Delivery failures are logged only.
func publishEvent(publisher events.Publisher, event events.Event) {
	if publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := publisher.Publish(ctx, event); err != nil {
			logger.Warn("Failed to publish event", map[string]interface{}{
				"type":  event.Type,
				"key":   event.Key,
				"error": err.Error(),
			})
		}
	}()
}
