package model

import "time"

// LoginAttempt is an append-only audit record of one login try.
// UserID 0 means the attempted email did not match any account.
// Rows are never updated, only inserted and bulk-deleted by retention.
type LoginAttempt struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        uint      `json:"user_id" gorm:"index:idx_user_login_at,priority:1"`
	IPAddress     string    `json:"ip_address" gorm:"size:50"`
	UserAgent     string    `json:"user_agent"`
	DeviceInfo    string    `json:"device_info" gorm:"size:100"` // "Mobile - Android - Chrome"
	Location      string    `json:"location" gorm:"size:100"`    // "Austin, Texas, United States"
	Success       bool      `json:"success"`
	FailureReason string    `json:"failure_reason,omitempty" gorm:"size:100"`
	DeviceToken   string    `json:"-" gorm:"size:100"`
	LoginAt       time.Time `json:"login_at" gorm:"index:idx_user_login_at,priority:2;index"`
}
