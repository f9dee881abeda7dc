package models

import (
	"fmt"
	"time"
)

// ChatType defines the kind of a chat.
type ChatType string

const (
	DirectChat ChatType = "direct" // one-to-one conversation
	GroupChat  ChatType = "group"  // club or ad-hoc group conversation
)

// Chat represents a conversation between two or more users.
//
// For direct chats, PairKey is the canonical "min:max" encoding of the two
// participant IDs and carries a unique index, so exactly one direct chat can
// exist per user pair no matter how many concurrent create requests race.
// For group chats PairKey is NULL.
type Chat struct {
	BaseModel
	Type    ChatType `gorm:"type:varchar(20);not null;index" json:"type"`
	PairKey *string  `gorm:"type:varchar(64);uniqueIndex" json:"-"`

	// LastMessageAt is bookkeeping for inbox ordering. It is updated
	// best-effort after each send and may lag behind the messages table.
	LastMessageAt *time.Time `gorm:"index" json:"lastMessageAt,omitempty"`

	Participants []ChatParticipant `gorm:"foreignKey:ChatID" json:"participants,omitempty"`
	Messages     []Message         `gorm:"foreignKey:ChatID" json:"messages,omitempty"`
}

// TableName specifies the table name for the Chat model.
func (Chat) TableName() string {
	return "chats"
}

// DirectPairKey returns the canonical pair key for a direct chat between two users.
func DirectPairKey(userID1, userID2 uint) string {
	if userID1 > userID2 {
		userID1, userID2 = userID2, userID1
	}
	return fmt.Sprintf("%d:%d", userID1, userID2)
}

// ChatParticipant links a user to a chat.
type ChatParticipant struct {
	BaseModel
	ChatID   uint      `gorm:"not null;uniqueIndex:idx_chat_participant" json:"chatId"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_chat_participant" json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for the ChatParticipant model.
func (ChatParticipant) TableName() string {
	return "chat_participants"
}

// Message is a single chat message. Messages are append-only; they are never
// edited or hard-deleted in application code.
type Message struct {
	BaseModel
	ChatID   uint      `gorm:"index;not null" json:"chatId"`
	SenderID uint      `gorm:"index;not null" json:"senderId"`
	Content  string    `gorm:"type:text;not null" json:"content"`
	SentAt   time.Time `gorm:"not null" json:"sentAt"`

	Sender User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// TableName specifies the table name for the Message model.
func (Message) TableName() string {
	return "messages"
}
