package storage

import (
	"context"

	"gorm.io/gorm"

	"lyceum/internal/models"
)

// MessageRepository defines the interface for message data operations.
type MessageRepository interface {
	SaveMessage(ctx context.Context, message *models.Message) error
	GetMessagesByChatID(ctx context.Context, chatID uint, limit, offset int) ([]models.Message, error)
}

type gormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-backed message repository.
func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) SaveMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// GetMessagesByChatID returns messages newest-first for cursorless paging.
func (r *gormMessageRepository) GetMessagesByChatID(ctx context.Context, chatID uint, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("sent_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}
