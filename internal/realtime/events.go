package realtime

import (
	"encoding/json"
	"time"
)

// EventKind names the kind of a realtime event.
type EventKind string

const (
	EventNotification EventKind = "notification"
	EventChatMessage  EventKind = "chat_message"
)

// Event is the envelope that flows through Kafka and out to connected
// websocket clients. Payload holds the kind-specific body.
type Event struct {
	Kind        EventKind       `json:"kind"`
	RecipientID uint            `json:"recipientId"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// NotificationPayload is the payload for EventNotification events.
type NotificationPayload struct {
	Content string `json:"content"`
	Link    string `json:"link,omitempty"`
}

// ChatMessagePayload is the payload for EventChatMessage events.
type ChatMessagePayload struct {
	MessageID uint      `json:"messageId"`
	ChatID    uint      `json:"chatId"`
	SenderID  uint      `json:"senderId"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sentAt"`
}

// NewNotificationEvent builds a notification event for the given recipient.
func NewNotificationEvent(recipientID uint, content, link string) (*Event, error) {
	payload, err := json.Marshal(NotificationPayload{Content: content, Link: link})
	if err != nil {
		return nil, err
	}
	return &Event{
		Kind:        EventNotification,
		RecipientID: recipientID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}, nil
}

// NewChatMessageEvent builds a chat message event for the given recipient.
func NewChatMessageEvent(recipientID uint, p ChatMessagePayload) (*Event, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return &Event{
		Kind:        EventChatMessage,
		RecipientID: recipientID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}, nil
}
