package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	confluentKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"lyceum/internal/config"
	"lyceum/internal/kafka"
	"lyceum/internal/models"
	"lyceum/internal/realtime"
	"lyceum/internal/storage"
)

// ErrNotificationNotFound is returned when a notification does not exist or
// belongs to another user.
var ErrNotificationNotFound = errors.New("notification not found")

// Notifier is the producer side of the notification pipeline. Services that
// only need to emit notifications depend on this instead of the full
// NotificationService.
type Notifier interface {
	Notify(ctx context.Context, userID uint, content, link string) error
}

// NotificationService publishes notification events to Kafka, persists them
// when consumed, and serves the user's inbox.
type NotificationService interface {
	Notifier
	// ProcessNotificationEvent is the Kafka consumer handler: it persists the
	// notification and forwards the event to the outgoing stream topic.
	ProcessNotificationEvent(ctx context.Context, kafkaMsg *confluentKafka.Message) error
	ListNotifications(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID uint) error
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type notificationService struct {
	notificationRepo storage.NotificationRepository
	producer         kafka.MessageProducer
	kafkaConfig      config.KafkaConfig
}

// NewNotificationService creates a new NotificationService instance.
func NewNotificationService(
	notificationRepo storage.NotificationRepository,
	producer kafka.MessageProducer,
	cfg config.KafkaConfig,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		producer:         producer,
		kafkaConfig:      cfg,
	}
}

// Notify publishes a notification event. Persistence happens when the event
// is consumed, so callers never block on the notifications table.
func (s *notificationService) Notify(ctx context.Context, userID uint, content, link string) error {
	event, err := realtime.NewNotificationEvent(userID, content, link)
	if err != nil {
		return fmt.Errorf("failed to build notification event: %w", err)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	key := []byte(fmt.Sprintf("%d", userID))
	if err := s.producer.SendMessage(ctx, s.kafkaConfig.NotificationsTopic, key, payload); err != nil {
		return fmt.Errorf("failed to publish notification for user %d: %w", userID, err)
	}
	return nil
}

func (s *notificationService) ProcessNotificationEvent(ctx context.Context, kafkaMsg *confluentKafka.Message) error {
	var event realtime.Event
	if err := json.Unmarshal(kafkaMsg.Value, &event); err != nil {
		log.Printf("Error unmarshalling notification event: %v, value: %s", err, string(kafkaMsg.Value))
		return nil // Commit offset for bad message
	}
	if event.Kind != realtime.EventNotification {
		log.Printf("Ignoring event of kind %q on notifications topic", event.Kind)
		return nil
	}

	var payload realtime.NotificationPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		log.Printf("Error unmarshalling notification payload: %v", err)
		return nil
	}

	notification := &models.Notification{
		UserID:  event.RecipientID,
		Content: payload.Content,
		Link:    payload.Link,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		log.Printf("Error persisting notification for user %d: %v", event.RecipientID, err)
		return err // Retryable
	}

	// Forward to the stream topic for websocket delivery. The row is already
	// saved, so a forwarding failure only costs the live push.
	if err := s.producer.SendMessage(ctx, s.kafkaConfig.StreamTopic, kafkaMsg.Key, kafkaMsg.Value); err != nil {
		log.Printf("Error forwarding notification to stream topic for user %d: %v", event.RecipientID, err)
	}
	return nil
}

func (s *notificationService) ListNotifications(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.notificationRepo.ListForUser(ctx, userID, limit, offset)
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID uint) error {
	updated, err := s.notificationRepo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}
