package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lyceum/internal/models"
	"lyceum/internal/storage"
)

// newTestDB opens a fresh in-memory SQLite database with the same gorm
// configuration the servers use, so duplicate-key translation behaves the
// same in tests as in production.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// A single connection keeps every session on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := storage.AutoMigrateTables(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string, credits int64) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "not-a-real-hash",
		Credits:      credits,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user %s: %v", username, err)
	}
	return user
}

// fakeNotifier records notifications instead of publishing to Kafka.
type fakeNotifier struct {
	sent []sentNotification
}

type sentNotification struct {
	UserID  uint
	Content string
	Link    string
}

func (f *fakeNotifier) Notify(ctx context.Context, userID uint, content, link string) error {
	f.sent = append(f.sent, sentNotification{UserID: userID, Content: content, Link: link})
	return nil
}

// fakeProducer records published Kafka messages.
type fakeProducer struct {
	messages []producedMessage
}

type producedMessage struct {
	Topic   string
	Key     string
	Payload []byte
}

func (f *fakeProducer) SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error {
	f.messages = append(f.messages, producedMessage{Topic: topic, Key: string(key), Payload: payload})
	return nil
}

func (f *fakeProducer) Close() {}

// fakeRevoker tracks session revocation state in memory.
type fakeRevoker struct {
	revoked map[uint]bool
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: make(map[uint]bool)}
}

func (f *fakeRevoker) RevokeUser(ctx context.Context, userID uint, ttl time.Duration) error {
	f.revoked[userID] = true
	return nil
}

func (f *fakeRevoker) RestoreUser(ctx context.Context, userID uint) error {
	delete(f.revoked, userID)
	return nil
}

func (f *fakeRevoker) IsRevoked(ctx context.Context, userID uint) (bool, error) {
	return f.revoked[userID], nil
}

// fakeBlacklist tracks blacklisted JTIs in memory.
type fakeBlacklist struct {
	jtis map[string]bool
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{jtis: make(map[string]bool)}
}

func (f *fakeBlacklist) Add(ctx context.Context, jti string, expiry time.Time) error {
	f.jtis[jti] = true
	return nil
}

func (f *fakeBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return f.jtis[jti], nil
}
