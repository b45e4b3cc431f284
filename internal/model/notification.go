package model

import "time"

// Notification type tags
const (
	NotificationTypeDealRequest = "deal_request"
	NotificationTypeDealUpdate  = "deal_update"
	NotificationTypeSystem      = "system"
)

// Notification durable per-user notification record. Created before any
// delivery attempt; after creation only IsRead may change, and only by the
// recipient.
type Notification struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"type:bigint unsigned;not null;index" json:"user_id"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	Body      string    `gorm:"column:message;type:text;not null" json:"message"`
	Type      string    `gorm:"type:varchar(32);not null" json:"type"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	DealID    *uint64   `gorm:"type:bigint unsigned;index" json:"deal_id,omitempty"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName set name
func (Notification) TableName() string {
	return "notifications"
}
