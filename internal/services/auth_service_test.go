package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"lyceum/internal/auth"
	"lyceum/internal/config"
	"lyceum/internal/models"
	"lyceum/internal/storage"
)

func newAuthEnv(t *testing.T, db *gorm.DB, blacklist auth.TokenBlacklist) (AuthService, CreditsService) {
	t.Helper()
	userRepo := storage.NewGormUserRepository(db)
	credits := NewCreditsService(db, userRepo)
	authCfg := config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Hour}
	creditsCfg := config.CreditsConfig{SignupBonus: 100, GenerationAward: 20, QuestionsPerUnit: 5}
	return NewAuthService(userRepo, credits, blacklist, authCfg, creditsCfg), credits
}

func TestRegisterGrantsSignupBonus(t *testing.T) {
	db := newTestDB(t)
	svc, credits := newAuthEnv(t, db, newFakeBlacklist())
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "correct horse", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Credits != 100 {
		t.Errorf("expected signup bonus of 100, got %d", user.Credits)
	}

	// The bonus must be backed by a ledger entry.
	check, err := credits.VerifyLedger(ctx, user.ID)
	if err != nil {
		t.Fatalf("VerifyLedger failed: %v", err)
	}
	if !check.Consistent || check.LedgerSum != 100 {
		t.Errorf("expected consistent ledger at 100, got %+v", check)
	}

	history, err := credits.History(ctx, user.ID, 10, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].Reason != models.ReasonSignupBonus {
		t.Errorf("expected one signup bonus entry, got %+v", history)
	}
}

func TestRegisterValidation(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthEnv(t, db, newFakeBlacklist())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "short", "", ""); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}

	if _, err := svc.Register(ctx, "alice", "correct horse", "", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "another pass", "", ""); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterEmailIsOptionalAndUnique(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthEnv(t, db, newFakeBlacklist())
	ctx := context.Background()

	// Accounts without an email must not collide with each other.
	if _, err := svc.Register(ctx, "alice", "correct horse", "", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svc.Register(ctx, "bob", "correct horse", "", ""); err != nil {
		t.Fatalf("second register without email failed: %v", err)
	}

	if _, err := svc.Register(ctx, "carol", "correct horse", "carol@example.com", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svc.Register(ctx, "dave", "correct horse", "carol@example.com", ""); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken for a reused email, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthEnv(t, db, newFakeBlacklist())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "correct horse", "", "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	token, user, err := svc.Login(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" || user.ID != registered.ID {
		t.Errorf("expected a token for alice, got token=%q user=%+v", token, user)
	}

	if _, _, err := svc.Login(ctx, "alice", "wrong pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestLoginBannedUser(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthEnv(t, db, newFakeBlacklist())
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "correct horse", "", "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("banned", true).Error; err != nil {
		t.Fatalf("failed to ban user: %v", err)
	}

	if _, _, err := svc.Login(ctx, "alice", "correct horse"); !errors.Is(err, ErrUserBanned) {
		t.Errorf("expected ErrUserBanned, got %v", err)
	}
}

func TestLogoutBlacklistsToken(t *testing.T) {
	db := newTestDB(t)
	blacklist := newFakeBlacklist()
	svc, _ := newAuthEnv(t, db, blacklist)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "correct horse", "", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	tokenString, _, err := svc.Login(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	claims, err := auth.ValidateToken(ctx, tokenString, "test-secret", blacklist)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := auth.ValidateToken(ctx, tokenString, "test-secret", blacklist); err == nil {
		t.Error("expected validation to fail after logout")
	}
}
