package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"lyceum/internal/config"
	"lyceum/internal/kafka"
	"lyceum/internal/models"
	"lyceum/internal/realtime"
	"lyceum/internal/storage"
)

var (
	ErrChatNotFound                 = errors.New("chat not found")
	ErrNotChatParticipant           = errors.New("user is not a participant of this chat")
	ErrDirectChatRequiresFriendship = errors.New("direct chats require an existing friendship")
	ErrEmptyMessage                 = errors.New("message content must not be empty")
)

// ChatService owns chats and messages. Messaging is HTTP-first: sends go
// through SendMessage and the websocket stream only pushes copies to
// connected recipients.
type ChatService interface {
	// GetOrCreateDirectChat returns the single direct chat between two
	// friends, creating it on first use. Concurrent calls for the same pair
	// converge on one chat.
	GetOrCreateDirectChat(ctx context.Context, userID, otherUserID uint) (*models.Chat, error)
	SendMessage(ctx context.Context, chatID, senderID uint, content string) (*models.Message, error)
	ListChats(ctx context.Context, userID uint) ([]models.Chat, error)
	GetMessages(ctx context.Context, chatID, userID uint, limit, offset int) ([]models.Message, error)
}

type chatService struct {
	db             *gorm.DB
	chatRepo       storage.ChatRepository
	messageRepo    storage.MessageRepository
	friendshipRepo storage.FriendshipRepository
	producer       kafka.MessageProducer
	kafkaConfig    config.KafkaConfig
}

// NewChatService creates a new ChatService instance.
func NewChatService(
	db *gorm.DB,
	chatRepo storage.ChatRepository,
	messageRepo storage.MessageRepository,
	friendshipRepo storage.FriendshipRepository,
	producer kafka.MessageProducer,
	cfg config.KafkaConfig,
) ChatService {
	return &chatService{
		db:             db,
		chatRepo:       chatRepo,
		messageRepo:    messageRepo,
		friendshipRepo: friendshipRepo,
		producer:       producer,
		kafkaConfig:    cfg,
	}
}

func (s *chatService) GetOrCreateDirectChat(ctx context.Context, userID, otherUserID uint) (*models.Chat, error) {
	if userID == otherUserID {
		return nil, ErrSelfRelationship
	}

	areFriends, err := s.friendshipRepo.AreUsersFriends(ctx, userID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	if !areFriends {
		return nil, ErrDirectChatRequiresFriendship
	}

	pairKey := models.DirectPairKey(userID, otherUserID)

	existing, err := s.chatRepo.FindDirectChatByPairKey(ctx, pairKey)
	if err != nil {
		return nil, fmt.Errorf("failed to look up direct chat: %w", err)
	}
	if existing != nil {
		return s.chatRepo.GetChatByID(ctx, existing.ID)
	}

	// Create the chat and both participant rows together. If a concurrent
	// call wins the race, the pair key conflict rolls this back and the
	// winner's chat is returned instead.
	var created models.Chat
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txChatRepo := storage.NewGormChatRepository(tx)

		created = models.Chat{
			Type:    models.DirectChat,
			PairKey: &pairKey,
		}
		if err := txChatRepo.CreateChat(ctx, &created); err != nil {
			return err
		}

		now := time.Now()
		for _, id := range []uint{userID, otherUserID} {
			participant := &models.ChatParticipant{
				ChatID:   created.ID,
				UserID:   id,
				JoinedAt: now,
			}
			if err := txChatRepo.AddParticipant(ctx, participant); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		if storage.IsDuplicateKey(txErr) {
			winner, err := s.chatRepo.FindDirectChatByPairKey(ctx, pairKey)
			if err != nil {
				return nil, fmt.Errorf("failed to re-resolve direct chat after conflict: %w", err)
			}
			if winner == nil {
				return nil, fmt.Errorf("direct chat conflict but no chat found for pair %s", pairKey)
			}
			return s.chatRepo.GetChatByID(ctx, winner.ID)
		}
		return nil, fmt.Errorf("failed to create direct chat: %w", txErr)
	}

	return s.chatRepo.GetChatByID(ctx, created.ID)
}

func (s *chatService) SendMessage(ctx context.Context, chatID, senderID uint, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	chat, err := s.chatRepo.GetChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to load chat %d: %w", chatID, err)
	}

	isParticipant, err := s.chatRepo.IsParticipant(ctx, chatID, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}
	if !isParticipant {
		return nil, ErrNotChatParticipant
	}

	message := &models.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
		SentAt:   time.Now(),
	}
	if err := s.messageRepo.SaveMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	// Inbox ordering bookkeeping is best effort; the message is already
	// durable and a stale LastMessageAt only mis-sorts the chat list.
	if err := s.chatRepo.TouchLastMessageAt(ctx, chatID, message.SentAt); err != nil {
		log.Printf("Failed to update last_message_at for chat %d: %v", chatID, err)
	}

	s.publishMessage(ctx, chat, message)
	return message, nil
}

// publishMessage pushes the message to the stream topic for each other
// participant. Live delivery is best effort.
func (s *chatService) publishMessage(ctx context.Context, chat *models.Chat, message *models.Message) {
	if s.producer == nil {
		return
	}
	payload := realtime.ChatMessagePayload{
		MessageID: message.ID,
		ChatID:    message.ChatID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		SentAt:    message.SentAt,
	}
	for _, participant := range chat.Participants {
		if participant.UserID == message.SenderID {
			continue
		}
		event, err := realtime.NewChatMessageEvent(participant.UserID, payload)
		if err != nil {
			log.Printf("Failed to build chat event for user %d: %v", participant.UserID, err)
			continue
		}
		data, err := json.Marshal(event)
		if err != nil {
			log.Printf("Failed to marshal chat event for user %d: %v", participant.UserID, err)
			continue
		}
		key := []byte(fmt.Sprintf("%d", participant.UserID))
		if err := s.producer.SendMessage(ctx, s.kafkaConfig.StreamTopic, key, data); err != nil {
			log.Printf("Failed to publish chat event for user %d: %v", participant.UserID, err)
		}
	}
}

func (s *chatService) ListChats(ctx context.Context, userID uint) ([]models.Chat, error) {
	chats, err := s.chatRepo.ListChatsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats for user %d: %w", userID, err)
	}
	return chats, nil
}

func (s *chatService) GetMessages(ctx context.Context, chatID, userID uint, limit, offset int) ([]models.Message, error) {
	isParticipant, err := s.chatRepo.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}
	if !isParticipant {
		return nil, ErrNotChatParticipant
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.messageRepo.GetMessagesByChatID(ctx, chatID, limit, offset)
}
