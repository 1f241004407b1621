package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"`
	Username string `gorm:"uniqueIndex;not null"`
	FarmName string `json:"farm_name" gorm:"not null"`

	// Optional profile fields (updated from settings)
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Bio         string `json:"bio"`
	Region      string `json:"region"`

	// System fields
	IsVerified bool `json:"is_verified" gorm:"default:false"`
	IsAdmin    bool `json:"is_admin" gorm:"default:false"`

	// Login audit fields, owned by the security subsystem
	LastLoginAt *time.Time `json:"last_login_at"`
	DeviceToken string     `json:"-" gorm:"size:100"`

	// Password reset
	ResetToken          string     `json:"-" gorm:"size:100"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	// Relations
	Products []Product `json:"-"`
}

func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":           u.ID,
		"username":     u.Username,
		"farm_name":    u.FarmName,
		"full_name":    u.GetFullName(),
		"phone_number": u.PhoneNumber,
		"bio":          u.Bio,
		"region":       u.Region,
		"is_verified":  u.IsVerified,
	}
}
