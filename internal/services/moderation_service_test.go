package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"lyceum/internal/models"
	"lyceum/internal/storage"
)

func newModerationEnv(t *testing.T, db *gorm.DB, revoker *fakeRevoker, notifier *fakeNotifier) ModerationService {
	t.Helper()
	credits := NewCreditsService(db, storage.NewGormUserRepository(db))
	return NewModerationService(
		storage.NewGormUserRepository(db),
		storage.NewGormReportRepository(db),
		credits,
		revoker,
		notifier,
	)
}

func TestBanAndUnbanUser(t *testing.T) {
	db := newTestDB(t)
	revoker := newFakeRevoker()
	notifier := &fakeNotifier{}
	svc := newModerationEnv(t, db, revoker, notifier)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)

	if err := svc.BanUser(ctx, alice.ID); err != nil {
		t.Fatalf("BanUser failed: %v", err)
	}

	var banned models.User
	if err := db.First(&banned, alice.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if !banned.Banned {
		t.Error("expected the ban flag to be set")
	}
	if revoked, _ := revoker.IsRevoked(ctx, alice.ID); !revoked {
		t.Error("expected sessions to be revoked on ban")
	}

	if err := svc.BanUser(ctx, alice.ID); !errors.Is(err, ErrAlreadyBanned) {
		t.Errorf("expected ErrAlreadyBanned, got %v", err)
	}

	if err := svc.UnbanUser(ctx, alice.ID); err != nil {
		t.Fatalf("UnbanUser failed: %v", err)
	}
	if revoked, _ := revoker.IsRevoked(ctx, alice.ID); revoked {
		t.Error("expected sessions restored on unban")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].UserID != alice.ID {
		t.Errorf("expected unban notification, got %+v", notifier.sent)
	}

	if err := svc.UnbanUser(ctx, alice.ID); !errors.Is(err, ErrNotBanned) {
		t.Errorf("expected ErrNotBanned, got %v", err)
	}
}

func TestBanAdminRefused(t *testing.T) {
	db := newTestDB(t)
	svc := newModerationEnv(t, db, newFakeRevoker(), nil)
	ctx := context.Background()

	admin := createTestUser(t, db, "root", 0)
	if err := db.Model(&models.User{}).Where("id = ?", admin.ID).Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("failed to promote user: %v", err)
	}

	if err := svc.BanUser(ctx, admin.ID); !errors.Is(err, ErrCannotModerateAdmin) {
		t.Errorf("expected ErrCannotModerateAdmin, got %v", err)
	}
}

func TestReportLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := newModerationEnv(t, db, newFakeRevoker(), nil)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	admin := createTestUser(t, db, "root", 0)

	report, err := svc.FileReport(ctx, alice.ID, models.ReportTargetPost, 42, "spam")
	if err != nil {
		t.Fatalf("FileReport failed: %v", err)
	}
	if report.Status != models.ReportStatusPending {
		t.Errorf("expected pending report, got %s", report.Status)
	}

	pending, err := svc.ListPendingReports(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListPendingReports failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending report, got %d", len(pending))
	}

	if err := svc.ResolveReport(ctx, report.ID, admin.ID, "nonsense"); !errors.Is(err, ErrInvalidReportStatus) {
		t.Errorf("expected ErrInvalidReportStatus, got %v", err)
	}

	if err := svc.ResolveReport(ctx, report.ID, admin.ID, models.ReportStatusResolved); err != nil {
		t.Fatalf("ResolveReport failed: %v", err)
	}

	// The transition is terminal: a second resolve must fail.
	if err := svc.ResolveReport(ctx, report.ID, admin.ID, models.ReportStatusDismissed); !errors.Is(err, ErrReportAlreadyResolved) {
		t.Errorf("expected ErrReportAlreadyResolved, got %v", err)
	}
	if err := svc.ResolveReport(ctx, 9999, admin.ID, models.ReportStatusResolved); !errors.Is(err, storage.ErrReportNotFound) {
		t.Errorf("expected ErrReportNotFound, got %v", err)
	}

	pending, err = svc.ListPendingReports(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListPendingReports failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending reports after resolve, got %d", len(pending))
	}
}

func TestAdjustCredits(t *testing.T) {
	db := newTestDB(t)
	svc := newModerationEnv(t, db, newFakeRevoker(), nil)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 10)

	if err := svc.AdjustCredits(ctx, alice.ID, 15); err != nil {
		t.Fatalf("AdjustCredits failed: %v", err)
	}
	if err := svc.AdjustCredits(ctx, alice.ID, -100); !errors.Is(err, ErrInsufficientCredits) {
		t.Errorf("expected ErrInsufficientCredits, got %v", err)
	}

	var user models.User
	if err := db.First(&user, alice.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if user.Credits != 25 {
		t.Errorf("expected balance 25, got %d", user.Credits)
	}

	var entry models.LedgerEntry
	if err := db.Where("user_id = ?", alice.ID).First(&entry).Error; err != nil {
		t.Fatalf("failed to load ledger entry: %v", err)
	}
	if entry.Reason != models.ReasonAdminAdjustment {
		t.Errorf("expected admin adjustment reason, got %s", entry.Reason)
	}
}
