package services

import (
	"context"
	"errors"
	"testing"

	"lyceum/internal/models"
	"lyceum/internal/storage"
)

func TestApplyDeltaCreditAndDebit(t *testing.T) {
	db := newTestDB(t)
	svc := NewCreditsService(db, storage.NewGormUserRepository(db))
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)

	if err := svc.ApplyDelta(ctx, alice.ID, 100, models.ReasonSignupBonus, nil); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if err := svc.ApplyDelta(ctx, alice.ID, -30, models.ReasonAIGenerationCost, nil); err != nil {
		t.Fatalf("debit failed: %v", err)
	}

	balance, err := svc.Balance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if balance != 70 {
		t.Errorf("expected balance 70, got %d", balance)
	}

	history, err := svc.History(ctx, alice.ID, 10, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected 2 ledger entries, got %d", len(history))
	}
}

func TestApplyDeltaOverdrawWritesNothing(t *testing.T) {
	db := newTestDB(t)
	svc := NewCreditsService(db, storage.NewGormUserRepository(db))
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 10)

	err := svc.ApplyDelta(ctx, alice.ID, -11, models.ReasonAIGenerationCost, nil)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}

	balance, err := svc.Balance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if balance != 10 {
		t.Errorf("failed debit must not change the balance, got %d", balance)
	}

	history, err := svc.History(ctx, alice.ID, 10, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("failed debit must not append a ledger entry, got %d entries", len(history))
	}
}

func TestApplyDeltaZeroAndMissingUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewCreditsService(db, storage.NewGormUserRepository(db))
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)

	if err := svc.ApplyDelta(ctx, alice.ID, 0, models.ReasonAdminAdjustment, nil); !errors.Is(err, ErrZeroDelta) {
		t.Errorf("expected ErrZeroDelta, got %v", err)
	}
	if err := svc.ApplyDelta(ctx, 9999, 10, models.ReasonAdminAdjustment, nil); !errors.Is(err, storage.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestVerifyLedger(t *testing.T) {
	db := newTestDB(t)
	svc := NewCreditsService(db, storage.NewGormUserRepository(db))
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	if err := svc.ApplyDelta(ctx, alice.ID, 50, models.ReasonSignupBonus, nil); err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	if err := svc.ApplyDelta(ctx, alice.ID, -20, models.ReasonAIGenerationCost, nil); err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}

	check, err := svc.VerifyLedger(ctx, alice.ID)
	if err != nil {
		t.Fatalf("VerifyLedger failed: %v", err)
	}
	if !check.Consistent || check.Balance != 30 || check.LedgerSum != 30 {
		t.Errorf("expected consistent ledger at 30, got %+v", check)
	}

	// Corrupt the materialized balance behind the ledger's back.
	if err := db.Model(&models.User{}).Where("id = ?", alice.ID).Update("credits", 99).Error; err != nil {
		t.Fatalf("failed to corrupt balance: %v", err)
	}
	check, err = svc.VerifyLedger(ctx, alice.ID)
	if err != nil {
		t.Fatalf("VerifyLedger failed: %v", err)
	}
	if check.Consistent {
		t.Error("expected inconsistency after manual balance edit")
	}
}
