package repository

import (
	"context"

	"gorm.io/gorm"

	"modmarket/internal/model"
	"modmarket/pkg/utils"
)

// NotificationRepository notification repository interface
type NotificationRepository interface {
	// Create stores a notification record
	Create(ctx context.Context, n *model.Notification) error

	// ListByUser lists a user's notifications, newest first
	ListByUser(ctx context.Context, userID uint64) ([]*model.Notification, error)

	// CountUnread counts a user's unread notifications
	CountUnread(ctx context.Context, userID uint64) (int64, error)

	// MarkRead marks one notification of the user as read
	MarkRead(ctx context.Context, id, userID uint64) error

	// MarkAllRead marks all of the user's notifications as read
	MarkAllRead(ctx context.Context, userID uint64) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create stores a notification record
func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListByUser lists a user's notifications, newest first
func (r *notificationRepository) ListByUser(ctx context.Context, userID uint64) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	return notifications, err
}

// CountUnread counts a user's unread notifications
func (r *notificationRepository) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification of the user as read. The user_id filter
// keeps one user from flipping another user's notifications.
func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uint64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks all of the user's notifications as read
func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}
