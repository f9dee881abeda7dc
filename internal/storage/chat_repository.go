package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"lyceum/internal/models"
)

// ChatRepository defines the interface for chat and participant data operations.
type ChatRepository interface {
	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChatByID(ctx context.Context, chatID uint) (*models.Chat, error)
	FindDirectChatByPairKey(ctx context.Context, pairKey string) (*models.Chat, error)
	AddParticipant(ctx context.Context, participant *models.ChatParticipant) error
	IsParticipant(ctx context.Context, chatID, userID uint) (bool, error)
	ListChatsForUser(ctx context.Context, userID uint) ([]models.Chat, error)
	TouchLastMessageAt(ctx context.Context, chatID uint, at time.Time) error
}

type gormChatRepository struct {
	db *gorm.DB
}

// NewGormChatRepository creates a new GORM-backed chat repository.
func NewGormChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

func (r *gormChatRepository) CreateChat(ctx context.Context, chat *models.Chat) error {
	return r.db.WithContext(ctx).Create(chat).Error
}

func (r *gormChatRepository) GetChatByID(ctx context.Context, chatID uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Preload("Participants.User").
		First(&chat, chatID).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindDirectChatByPairKey looks up a direct chat by its canonical pair key.
// A missing chat is reported as (nil, nil).
func (r *gormChatRepository) FindDirectChatByPairKey(ctx context.Context, pairKey string) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		Where("type = ? AND pair_key = ?", models.DirectChat, pairKey).
		First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chat, nil
}

func (r *gormChatRepository) AddParticipant(ctx context.Context, participant *models.ChatParticipant) error {
	return r.db.WithContext(ctx).Create(participant).Error
}

func (r *gormChatRepository) IsParticipant(ctx context.Context, chatID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListChatsForUser returns the user's chats ordered by recent activity.
// Chats that have never seen a message sort last.
func (r *gormChatRepository) ListChatsForUser(ctx context.Context, userID uint) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.WithContext(ctx).
		Joins("JOIN chat_participants ON chat_participants.chat_id = chats.id").
		Where("chat_participants.user_id = ? AND chat_participants.deleted_at IS NULL", userID).
		Preload("Participants").
		Preload("Participants.User").
		Order("chats.last_message_at DESC NULLS LAST").
		Find(&chats).Error
	return chats, err
}

func (r *gormChatRepository) TouchLastMessageAt(ctx context.Context, chatID uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Chat{}).
		Where("id = ?", chatID).
		Update("last_message_at", at).Error
}
