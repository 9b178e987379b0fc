package model

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeOrderPlaced         NotificationType = "order_placed"
	NotificationTypeOrderStatusChanged  NotificationType = "order_status_changed"
	NotificationTypeVendorStatusChanged NotificationType = "vendor_status_changed"
	NotificationTypeReviewReceived      NotificationType = "review_received"
	NotificationTypeMemberAdded         NotificationType = "member_added"
)

// Notification is an in-app message for one user
type Notification struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint             `gorm:"not null;index" json:"user_id"`
	Type   NotificationType `gorm:"type:varchar(50);not null;index" json:"type"`

	Title   string `gorm:"type:text;not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`
	Link    string `gorm:"type:text" json:"link"`

	IsRead bool `gorm:"not null;default:false;index" json:"is_read"`

	RelatedOrderID   *uint `gorm:"index" json:"related_order_id,omitempty"`
	RelatedListingID *uint `gorm:"index" json:"related_listing_id,omitempty"`
	RelatedVendorID  *uint `gorm:"index" json:"related_vendor_id,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
