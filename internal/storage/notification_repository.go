package storage

import (
	"context"

	"gorm.io/gorm"

	"lyceum/internal/models"
)

// NotificationRepository defines the interface for notification data operations.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID uint) (bool, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type gormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GORM-backed notification repository.
func NewGormNotificationRepository(db *gorm.DB) NotificationRepository {
	return &gormNotificationRepository{db: db}
}

func (r *gormNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *gormNotificationRepository) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	return notifications, err
}

// MarkRead scopes the update by user so one user cannot mark another's
// notification. Reports whether a row changed.
func (r *gormNotificationRepository) MarkRead(ctx context.Context, notificationID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormNotificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
