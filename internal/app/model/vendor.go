package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

type VendorStatus string

const (
	VendorStatusPending  VendorStatus = "PENDING"
	VendorStatusApproved VendorStatus = "APPROVED"
	VendorStatusRejected VendorStatus = "REJECTED"
)

func (s VendorStatus) Valid() bool {
	switch s {
	case VendorStatusPending, VendorStatusApproved, VendorStatusRejected:
		return true
	}
	return false
}

type MemberRole string

const (
	MemberRoleOwner  MemberRole = "OWNER"
	MemberRoleMember MemberRole = "MEMBER"
	MemberRoleNone   MemberRole = "NONE" // never persisted
)

func (r MemberRole) Valid() bool {
	return r == MemberRoleOwner || r == MemberRoleMember
}

// IsMember reports whether the role grants access to vendor-scoped operations.
func (r MemberRole) IsMember() bool {
	return r.Valid()
}

// Vendor is a seller account (exposed as "business" over HTTP).
type Vendor struct {
	ID          uint         `gorm:"primarykey" json:"id"`
	Name        string       `gorm:"not null" json:"name"`
	Slug        string       `gorm:"uniqueIndex" json:"slug"`
	Description string       `gorm:"type:text" json:"description"`
	Status      VendorStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	Members []VendorMember `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

func (Vendor) TableName() string {
	return "vendors"
}

func (v *Vendor) IsApproved() bool {
	return v != nil && v.Status == VendorStatusApproved
}

// VendorMember links a user to a vendor with a role. One row per (vendor, user).
type VendorMember struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	VendorID  uint       `gorm:"not null;index:idx_vendor_member,unique" json:"vendor_id"`
	UserID    uint       `gorm:"not null;index:idx_vendor_member,unique;index" json:"user_id"`
	Role      MemberRole `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time  `json:"created_at"`

	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Vendor *Vendor `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
}

func (VendorMember) TableName() string {
	return "vendor_members"
}

// RoleOf resolves the role userID holds among members. Users without a row get MemberRoleNone.
func RoleOf(members []VendorMember, userID uint) MemberRole {
	for _, m := range members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return MemberRoleNone
}

var (
	slugInvalid = regexp.MustCompile(`[^\p{L}\p{N}-]+`)
	slugDashes  = regexp.MustCompile(`-+`)
)

func generateSlug(name string) string {
	slug := slugInvalid.ReplaceAllString(name, "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	return strings.ToLower(strings.Trim(slug, "-"))
}

// BeforeCreate fills in a unique slug derived from the vendor name.
func (v *Vendor) BeforeCreate(tx *gorm.DB) error {
	if v.Slug != "" {
		return nil
	}
	base := generateSlug(v.Name)
	if base == "" {
		base = "vendor"
	}
	slug := base
	for counter := 1; ; counter++ {
		var count int64
		if err := tx.Model(&Vendor{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, counter+1)
	}
	v.Slug = slug
	return nil
}
