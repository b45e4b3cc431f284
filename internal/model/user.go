package model

import (
	"time"
)

// User user model
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Salt         string    `gorm:"type:varchar(64);not null" json:"-"`
	IsAdmin      bool      `gorm:"not null;default:false;index" json:"is_admin"`
	IsBanned     bool      `gorm:"not null;default:false" json:"is_banned"`
	LastActivity time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"last_activity"`
	CreatedAt    time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	// Side-channel identities, all optional
	Email            *string `gorm:"type:varchar(255)" json:"email,omitempty"`
	TelegramID       *string `gorm:"type:varchar(64)" json:"telegram_id,omitempty"`
	PushSubscription *string `gorm:"type:text" json:"-"`

	// Notification preferences
	NotifyEmail    bool `gorm:"not null;default:false" json:"notify_email"`
	NotifyTelegram bool `gorm:"not null;default:false" json:"notify_telegram"`
	NotifyPush     bool `gorm:"not null;default:true" json:"notify_push"`
}

// TableName set name
func (User) TableName() string {
	return "users"
}

// IsActive check if the account may act
func (u *User) IsActive() bool {
	return !u.IsBanned
}
