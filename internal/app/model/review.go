package model

import (
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a rating a user leaves on a listing; at most one per (listing, user).
type Review struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ListingID uint      `gorm:"not null;index:idx_review_listing_user,unique" json:"listing_id"`
	UserID    uint      `gorm:"not null;index:idx_review_listing_user,unique" json:"user_id"`
	VendorID  uint      `gorm:"not null;index" json:"vendor_id"` // copied from the listing
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   *string   `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Listing *Listing `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}

// RatingSummary aggregates the reviews of one listing.
type RatingSummary struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}
