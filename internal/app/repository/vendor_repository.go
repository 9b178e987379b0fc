package repository

import (
	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"gorm.io/gorm"
)

type VendorRepository interface {
	FindByID(id uint) (*model.Vendor, error)
	FindByMember(userID uint) ([]model.Vendor, error)
	FindAll(status *model.VendorStatus, limit, offset int) ([]model.Vendor, int64, error)
	Update(vendor *model.Vendor) error
	UpdateStatus(id uint, status model.VendorStatus) error
	CountByStatus() (map[model.VendorStatus]int64, error)

	FindMembership(vendorID, userID uint) (*model.VendorMember, error)
	FindMembers(vendorID uint) ([]model.VendorMember, error)
	FindMemberUserIDs(vendorID uint) ([]uint, error)
	CountMemberships(userID uint) (int64, error)
	CountOwners(vendorID uint) (int64, error)
	AddMember(member *model.VendorMember) error
	RemoveMember(vendorID, userID uint) error
}

type vendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) VendorRepository {
	return &vendorRepository{db: db}
}

func (r *vendorRepository) FindByID(id uint) (*model.Vendor, error) {
	logger.Debug("Finding vendor by ID in database", map[string]interface{}{
		"vendor_id": id,
	})

	var vendor model.Vendor
	err := r.db.Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("vendor_members.id ASC").Preload("User")
	}).First(&vendor, id).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find vendor by ID in database", err, map[string]interface{}{
				"vendor_id": id,
			})
		}
		return nil, err
	}

	logger.Debug("Vendor found by ID in database", map[string]interface{}{
		"vendor_id": vendor.ID,
		"status":    vendor.Status,
		"members":   len(vendor.Members),
	})
	return &vendor, nil
}

func (r *vendorRepository) FindByMember(userID uint) ([]model.Vendor, error) {
	logger.Debug("Finding vendors by member in database", map[string]interface{}{
		"user_id": userID,
	})

	var vendors []model.Vendor
	err := r.db.Model(&model.Vendor{}).
		Joins("JOIN vendor_members ON vendor_members.vendor_id = vendors.id").
		Where("vendor_members.user_id = ?", userID).
		Preload("Members").
		Order("vendors.created_at DESC").
		Find(&vendors).Error
	if err != nil {
		logger.Error("Failed to find vendors by member in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return vendors, nil
}

func (r *vendorRepository) FindAll(status *model.VendorStatus, limit, offset int) ([]model.Vendor, int64, error) {
	var vendors []model.Vendor
	var total int64

	base := func() *gorm.DB {
		query := r.db.Model(&model.Vendor{})
		if status != nil {
			query = query.Where("status = ?", *status)
		}
		return query
	}

	if err := base().Count(&total).Error; err != nil {
		logger.Error("Failed to count vendors in database", err)
		return nil, 0, err
	}

	query := base()

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Preload("Members").Order("created_at DESC").Find(&vendors).Error; err != nil {
		logger.Error("Failed to find vendors in database", err)
		return nil, 0, err
	}
	return vendors, total, nil
}

func (r *vendorRepository) Update(vendor *model.Vendor) error {
	logger.Debug("Updating vendor in database", map[string]interface{}{
		"vendor_id": vendor.ID,
	})

	err := r.db.Model(&model.Vendor{}).Where("id = ?", vendor.ID).Updates(map[string]interface{}{
		"name":        vendor.Name,
		"description": vendor.Description,
	}).Error
	if err != nil {
		logger.Error("Failed to update vendor in database", err, map[string]interface{}{
			"vendor_id": vendor.ID,
		})
		return err
	}
	return nil
}

func (r *vendorRepository) UpdateStatus(id uint, status model.VendorStatus) error {
	logger.Debug("Updating vendor status in database", map[string]interface{}{
		"vendor_id": id,
		"status":    status,
	})

	result := r.db.Model(&model.Vendor{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		logger.Error("Failed to update vendor status in database", result.Error, map[string]interface{}{
			"vendor_id": id,
			"status":    status,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *vendorRepository) CountByStatus() (map[model.VendorStatus]int64, error) {
	type row struct {
		Status model.VendorStatus
		Count  int64
	}
	var rows []row
	if err := r.db.Model(&model.Vendor{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		logger.Error("Failed to count vendors by status", err)
		return nil, err
	}

	counts := map[model.VendorStatus]int64{
		model.VendorStatusPending:  0,
		model.VendorStatusApproved: 0,
		model.VendorStatusRejected: 0,
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (r *vendorRepository) FindMembership(vendorID, userID uint) (*model.VendorMember, error) {
	var member model.VendorMember
	err := r.db.Where("vendor_id = ? AND user_id = ?", vendorID, userID).First(&member).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find vendor membership", err, map[string]interface{}{
				"vendor_id": vendorID,
				"user_id":   userID,
			})
		}
		return nil, err
	}
	return &member, nil
}

func (r *vendorRepository) FindMembers(vendorID uint) ([]model.VendorMember, error) {
	var members []model.VendorMember
	if err := r.db.Where("vendor_id = ?", vendorID).
		Preload("User").
		Order("id ASC").
		Find(&members).Error; err != nil {
		logger.Error("Failed to find vendor members", err, map[string]interface{}{
			"vendor_id": vendorID,
		})
		return nil, err
	}
	return members, nil
}

func (r *vendorRepository) FindMemberUserIDs(vendorID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&model.VendorMember{}).
		Where("vendor_id = ?", vendorID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *vendorRepository) CountMemberships(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.VendorMember{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		logger.Error("Failed to count memberships", err, map[string]interface{}{
			"user_id": userID,
		})
		return 0, err
	}
	return count, nil
}

func (r *vendorRepository) CountOwners(vendorID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.VendorMember{}).
		Where("vendor_id = ? AND role = ?", vendorID, model.MemberRoleOwner).
		Count(&count).Error
	return count, err
}

func (r *vendorRepository) AddMember(member *model.VendorMember) error {
	logger.Debug("Adding vendor member in database", map[string]interface{}{
		"vendor_id": member.VendorID,
		"user_id":   member.UserID,
		"role":      member.Role,
	})

	if err := r.db.Create(member).Error; err != nil {
		logger.Error("Failed to add vendor member in database", err, map[string]interface{}{
			"vendor_id": member.VendorID,
			"user_id":   member.UserID,
		})
		return err
	}
	return nil
}

func (r *vendorRepository) RemoveMember(vendorID, userID uint) error {
	result := r.db.Where("vendor_id = ? AND user_id = ?", vendorID, userID).Delete(&model.VendorMember{})
	if result.Error != nil {
		logger.Error("Failed to remove vendor member in database", result.Error, map[string]interface{}{
			"vendor_id": vendorID,
			"user_id":   userID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
