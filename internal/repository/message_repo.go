package repository

import (
	"context"

	"gorm.io/gorm"

	"modmarket/internal/model"
)

// MessageRepository deal message repository interface
type MessageRepository interface {
	// Create appends a message to a deal thread
	Create(ctx context.Context, msg *model.DealMessage) error

	// ListByDeal lists a deal's messages in creation order
	ListByDeal(ctx context.Context, dealID uint64) ([]*model.DealMessage, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create appends a message to a deal thread
func (r *messageRepository) Create(ctx context.Context, msg *model.DealMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListByDeal lists a deal's messages in creation order. The id tiebreak keeps
// the order stable when two messages land in the same timestamp.
func (r *messageRepository) ListByDeal(ctx context.Context, dealID uint64) ([]*model.DealMessage, error) {
	var msgs []*model.DealMessage
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("deal_id = ?", dealID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}
