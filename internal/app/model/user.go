package model

import (
	"time"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`             // lower-cased institutional email
	Name       string    `gorm:"not null" json:"name"`                          // display name, editable
	ImageURL   string    `json:"image_url"`                                     // avatar from the identity provider
	ProviderID string    `gorm:"index" json:"-"`                                // identity provider subject
	Role       UserRole  `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Memberships []VendorMember `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
