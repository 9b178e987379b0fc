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
	"github.com/campusmarket/campusmarket-backend/pkg/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrVendorNotFound       = errors.New("vendor not found")
	ErrVendorLimitExceeded  = errors.New("vendor membership limit reached")
	ErrVendorNotApproved    = errors.New("vendor is not approved")
	ErrInvalidVendorStatus  = errors.New("invalid vendor status")
	ErrVendorMemberExists   = errors.New("user is already a member of this vendor")
	ErrVendorMemberNotFound = errors.New("user is not a member of this vendor")
	ErrLastOwner            = errors.New("vendor must keep at least one owner")
)

type CreateVendorInput struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=2000"`
}

type UpdateVendorInput struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// VendorService covers vendor accounts, their approval and their membership.
type VendorService interface {
	RoleOf(userID, vendorID uint) (model.MemberRole, error)

	CreateVendor(actor Actor, input CreateVendorInput) (*model.Vendor, error)
	SetVendorStatus(actor Actor, vendorID uint, status model.VendorStatus) (*model.Vendor, error)
	UpdateVendor(actor Actor, vendorID uint, input UpdateVendorInput) (*model.Vendor, error)

	GetVendor(actor *Actor, vendorID uint) (*model.Vendor, error)
	ListMine(actor Actor) ([]model.Vendor, error)
	ListAll(actor Actor, status *model.VendorStatus, page, pageSize int) ([]model.Vendor, int64, error)

	AddMember(actor Actor, vendorID uint, email string, role model.MemberRole) (*model.VendorMember, error)
	RemoveMember(actor Actor, vendorID, userID uint) error
}

type vendorService struct {
	vendorRepo    repository.VendorRepository
	userRepo      repository.UserRepository
	notifications NotificationService
	publisher     events.Publisher
	db            *gorm.DB
	maxVendors    int
}

func NewVendorService(
	vendorRepo repository.VendorRepository,
	userRepo repository.UserRepository,
	notifications NotificationService,
	publisher events.Publisher,
	db *gorm.DB,
	maxVendors int,
) VendorService {
	return &vendorService{
		vendorRepo:    vendorRepo,
		userRepo:      userRepo,
		notifications: notifications,
		publisher:     publisher,
		db:            db,
		maxVendors:    maxVendors,
	}
}

// RoleOf reports the membership role of userID in vendorID, MemberRoleNone when there is none.
func (s *vendorService) RoleOf(userID, vendorID uint) (model.MemberRole, error) {
	return roleOf(s.vendorRepo, userID, vendorID)
}

// CreateVendor creates a PENDING vendor with the actor as OWNER. The membership cap
// is checked under a lock on the user row so concurrent creations cannot exceed it.
func (s *vendorService) CreateVendor(actor Actor, input CreateVendorInput) (*model.Vendor, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	logger.Info("Creating vendor", map[string]interface{}{
		"user_id": actor.UserID,
		"name":    name,
	})

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during vendor creation, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": actor.UserID,
			})
		}
	}()

	var user model.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, actor.UserID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var memberships int64
	if err := tx.Model(&model.VendorMember{}).Where("user_id = ?", actor.UserID).Count(&memberships).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if s.maxVendors > 0 && memberships >= int64(s.maxVendors) {
		tx.Rollback()
		logger.Warn("Vendor creation rejected: membership limit reached", map[string]interface{}{
			"user_id":     actor.UserID,
			"memberships": memberships,
		})
		return nil, ErrVendorLimitExceeded
	}

	vendor := &model.Vendor{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Status:      model.VendorStatusPending,
	}
	if err := tx.Omit(clause.Associations).Create(vendor).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create vendor", err, map[string]interface{}{
			"user_id": actor.UserID,
		})
		return nil, err
	}

	owner := model.VendorMember{
		VendorID: vendor.ID,
		UserID:   actor.UserID,
		Role:     model.MemberRoleOwner,
	}
	if err := tx.Omit(clause.Associations).Create(&owner).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to record vendor owner", err, map[string]interface{}{
			"user_id":   actor.UserID,
			"vendor_id": vendor.ID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit vendor creation", err, map[string]interface{}{
			"user_id": actor.UserID,
		})
		return nil, err
	}

	vendor.Members = []model.VendorMember{owner}
	metrics.VendorsCreated.Inc()
	publishEvent(s.publisher, events.New(events.VendorCreated, vendorKey(vendor.ID), map[string]interface{}{
		"vendor_id": vendor.ID,
		"name":      vendor.Name,
		"owner_id":  actor.UserID,
	}))

	logger.Info("Vendor created", map[string]interface{}{
		"vendor_id": vendor.ID,
		"user_id":   actor.UserID,
	})
	return vendor, nil
}

// SetVendorStatus is admin only. Any valid status may follow any other; setting the
// current status again changes nothing and notifies nobody.
func (s *vendorService) SetVendorStatus(actor Actor, vendorID uint, status model.VendorStatus) (*model.Vendor, error) {
	if !actor.IsAdmin() {
		logger.Warn("Vendor status change rejected: not an admin", map[string]interface{}{
			"user_id":   actor.UserID,
			"vendor_id": vendorID,
		})
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, ErrInvalidVendorStatus
	}

	vendor, err := s.findVendor(vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.Status == status {
		return vendor, nil
	}

	previous := vendor.Status
	if err := s.vendorRepo.UpdateStatus(vendorID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, err
	}
	vendor.Status = status

	logger.Info("Vendor status changed", map[string]interface{}{
		"vendor_id": vendorID,
		"from":      previous,
		"to":        status,
		"admin_id":  actor.UserID,
	})

	memberIDs := make([]uint, 0, len(vendor.Members))
	for _, m := range vendor.Members {
		memberIDs = append(memberIDs, m.UserID)
	}
	s.notifications.Notify(memberIDs, model.Notification{
		Type:            model.NotificationTypeVendorStatusChanged,
		Title:           "Business status updated",
		Content:         fmt.Sprintf("%s is now %s", vendor.Name, strings.ToLower(string(status))),
		Link:            fmt.Sprintf("/businesses/%d", vendor.ID),
		RelatedVendorID: &vendor.ID,
	})
	publishEvent(s.publisher, events.New(events.VendorStatusChanged, vendorKey(vendor.ID), map[string]interface{}{
		"vendor_id": vendor.ID,
		"from":      previous,
		"to":        status,
	}))

	return vendor, nil
}

func (s *vendorService) UpdateVendor(actor Actor, vendorID uint, input UpdateVendorInput) (*model.Vendor, error) {
	vendor, err := s.findVendor(vendorID)
	if err != nil {
		return nil, err
	}
	if !model.RoleOf(vendor.Members, actor.UserID).IsMember() {
		return nil, ErrForbidden
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		vendor.Name = name
	}
	if input.Description != nil {
		vendor.Description = strings.TrimSpace(*input.Description)
	}

	if err := s.vendorRepo.Update(vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

// GetVendor returns approved vendors to anyone. Pending and rejected vendors are
// only returned to their members and to admins; everyone else gets ErrVendorNotFound.
func (s *vendorService) GetVendor(actor *Actor, vendorID uint) (*model.Vendor, error) {
	vendor, err := s.findVendor(vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.IsApproved() {
		return vendor, nil
	}
	if actor != nil && (actor.IsAdmin() || model.RoleOf(vendor.Members, actor.UserID).IsMember()) {
		return vendor, nil
	}
	return nil, ErrVendorNotFound
}

func (s *vendorService) ListMine(actor Actor) ([]model.Vendor, error) {
	return s.vendorRepo.FindByMember(actor.UserID)
}

func (s *vendorService) ListAll(actor Actor, status *model.VendorStatus, page, pageSize int) ([]model.Vendor, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, ErrForbidden
	}
	if status != nil && !status.Valid() {
		return nil, 0, ErrInvalidVendorStatus
	}
	limit, offset := Page(page, pageSize)
	return s.vendorRepo.FindAll(status, limit, offset)
}

// AddMember lets an OWNER add an existing user, found by email, to the vendor.
func (s *vendorService) AddMember(actor Actor, vendorID uint, email string, role model.MemberRole) (*model.VendorMember, error) {
	if role == "" {
		role = model.MemberRoleMember
	}
	if !role.Valid() {
		return nil, ErrInvalidInput
	}

	vendor, err := s.findVendor(vendorID)
	if err != nil {
		return nil, err
	}
	if model.RoleOf(vendor.Members, actor.UserID) != model.MemberRoleOwner {
		return nil, ErrForbidden
	}

	user, err := s.userRepo.FindByEmail(util.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if model.RoleOf(vendor.Members, user.ID) != model.MemberRoleNone {
		return nil, ErrVendorMemberExists
	}

	member := &model.VendorMember{
		VendorID: vendorID,
		UserID:   user.ID,
		Role:     role,
	}
	if err := s.vendorRepo.AddMember(member); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrVendorMemberExists
		}
		return nil, err
	}
	member.User = user

	logger.Info("Vendor member added", map[string]interface{}{
		"vendor_id": vendorID,
		"user_id":   user.ID,
		"role":      role,
		"added_by":  actor.UserID,
	})

	s.notifications.Notify([]uint{user.ID}, model.Notification{
		Type:            model.NotificationTypeMemberAdded,
		Title:           "Added to a business",
		Content:         fmt.Sprintf("You were added to %s", vendor.Name),
		Link:            fmt.Sprintf("/businesses/%d", vendor.ID),
		RelatedVendorID: &vendor.ID,
	})
	return member, nil
}

// RemoveMember is allowed for OWNERs, and for any member removing themselves.
// The last OWNER cannot be removed.
func (s *vendorService) RemoveMember(actor Actor, vendorID, userID uint) error {
	vendor, err := s.findVendor(vendorID)
	if err != nil {
		return err
	}

	actorRole := model.RoleOf(vendor.Members, actor.UserID)
	if actorRole != model.MemberRoleOwner && !(actorRole.IsMember() && actor.UserID == userID) {
		return ErrForbidden
	}

	targetRole := model.RoleOf(vendor.Members, userID)
	if targetRole == model.MemberRoleNone {
		return ErrVendorMemberNotFound
	}
	if targetRole == model.MemberRoleOwner {
		owners, err := s.vendorRepo.CountOwners(vendorID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return ErrLastOwner
		}
	}

	if err := s.vendorRepo.RemoveMember(vendorID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVendorMemberNotFound
		}
		return err
	}

	logger.Info("Vendor member removed", map[string]interface{}{
		"vendor_id":  vendorID,
		"user_id":    userID,
		"removed_by": actor.UserID,
	})
	return nil
}

func (s *vendorService) findVendor(vendorID uint) (*model.Vendor, error) {
	vendor, err := s.vendorRepo.FindByID(vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, err
	}
	return vendor, nil
}

func vendorKey(id uint) string {
	return fmt.Sprintf("vendor-%d", id)
}
