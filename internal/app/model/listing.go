package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ListingType string

const (
	ListingTypeProduct ListingType = "PRODUCT"
	ListingTypeService ListingType = "SERVICE"
	ListingTypeFood    ListingType = "FOOD"
)

func (t ListingType) Valid() bool {
	switch t {
	case ListingTypeProduct, ListingTypeService, ListingTypeFood:
		return true
	}
	return false
}

type Listing struct {
	ID          uint             `gorm:"primarykey" json:"id"`
	VendorID    uint             `gorm:"not null;index" json:"vendor_id"`
	Title       string           `gorm:"not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	Type        ListingType      `gorm:"type:varchar(20);not null;index" json:"type"`
	Price       *decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"` // nil means contact for price
	Stock       *int             `json:"stock"`                           // nil means not tracked
	IsAvailable bool             `gorm:"not null;index" json:"is_available"`
	Images      StringArray      `gorm:"type:text" json:"images"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	Vendor *Vendor `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE" json:"vendor,omitempty"`
}

func (Listing) TableName() string {
	return "listings"
}

// IsVisible requires Vendor to be loaded; a listing with no vendor is never visible.
func (l *Listing) IsVisible() bool {
	return l.IsAvailable && l.Vendor.IsApproved()
}

func (l *Listing) IsPurchasable() bool {
	return l.IsVisible() && (l.Stock == nil || *l.Stock > 0)
}

// TracksStock reports whether quantity requests are bounded by stock.
func (l *Listing) TracksStock() bool {
	return l.Stock != nil
}
