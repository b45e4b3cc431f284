package model

import "time"

// DealMessage one entry in a deal's message thread. The thread is append-only:
// rows are never updated or deleted, ordering is (created_at, id).
type DealMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	DealID    uint64    `gorm:"type:bigint unsigned;not null;index" json:"deal_id"`
	SenderID  uint64    `gorm:"type:bigint unsigned;not null" json:"sender_id"`
	Body      string    `gorm:"column:message;type:text;not null" json:"message"`
	IsSystem  bool      `gorm:"not null;default:false" json:"is_system"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// TableName set name
func (DealMessage) TableName() string {
	return "deal_messages"
}
