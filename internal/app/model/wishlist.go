package model

import (
	"time"
)

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_wishlist_user_listing,unique" json:"user_id"`
	ListingID uint      `gorm:"not null;index:idx_wishlist_user_listing,unique;index" json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`

	Listing *Listing `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"listing,omitempty"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}
