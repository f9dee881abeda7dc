package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"lyceum/internal/models"
	"lyceum/internal/storage"
)

func newChallengeEnv(t *testing.T, db *gorm.DB, notifier Notifier) (ChallengeService, *models.Course) {
	t.Helper()
	svc := NewChallengeService(
		storage.NewGormChallengeRepository(db),
		storage.NewGormUserRepository(db),
		storage.NewGormCourseRepository(db),
		notifier,
	)
	course := &models.Course{Code: "MATH101", Title: "Calculus I"}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("failed to create course: %v", err)
	}
	return svc, course
}

func TestCreateChallengeValidation(t *testing.T) {
	db := newTestDB(t)
	svc, course := newChallengeEnv(t, db, nil)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	if _, err := svc.CreateChallenge(ctx, alice.ID, alice.ID, course.ID, 10); !errors.Is(err, ErrSelfRelationship) {
		t.Errorf("expected ErrSelfRelationship, got %v", err)
	}
	if _, err := svc.CreateChallenge(ctx, alice.ID, bob.ID, course.ID, 0); !errors.Is(err, ErrInvalidCreditPot) {
		t.Errorf("expected ErrInvalidCreditPot, got %v", err)
	}
	if _, err := svc.CreateChallenge(ctx, alice.ID, 9999, course.ID, 10); !errors.Is(err, ErrTargetUserNotFound) {
		t.Errorf("expected ErrTargetUserNotFound, got %v", err)
	}
	if _, err := svc.CreateChallenge(ctx, alice.ID, bob.ID, 9999, 10); !errors.Is(err, storage.ErrCourseNotFound) {
		t.Errorf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestChallengeResponseGuards(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc, course := newChallengeEnv(t, db, notifier)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	challenge, err := svc.CreateChallenge(ctx, alice.ID, bob.ID, course.ID, 25)
	if err != nil {
		t.Fatalf("CreateChallenge failed: %v", err)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].UserID != bob.ID {
		t.Errorf("expected opponent notified on create, got %+v", notifier.sent)
	}

	// Only the opponent can respond; the challenger cannot accept their own
	// challenge.
	if err := svc.AcceptChallenge(ctx, alice.ID, challenge.ID); !errors.Is(err, ErrNotChallengeOpponent) {
		t.Errorf("expected ErrNotChallengeOpponent, got %v", err)
	}

	if err := svc.AcceptChallenge(ctx, bob.ID, challenge.ID); err != nil {
		t.Fatalf("AcceptChallenge failed: %v", err)
	}

	// A second response hits the status guard.
	if err := svc.DeclineChallenge(ctx, bob.ID, challenge.ID); !errors.Is(err, ErrChallengeNotPending) {
		t.Errorf("expected ErrChallengeNotPending, got %v", err)
	}

	var stored models.Challenge
	if err := db.First(&stored, challenge.ID).Error; err != nil {
		t.Fatalf("failed to reload challenge: %v", err)
	}
	if stored.Status != models.ChallengeStatusActive {
		t.Errorf("expected active challenge, got %s", stored.Status)
	}
}

func TestCompleteChallengeUnsupported(t *testing.T) {
	db := newTestDB(t)
	svc, course := newChallengeEnv(t, db, nil)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	challenge, err := svc.CreateChallenge(ctx, alice.ID, bob.ID, course.ID, 25)
	if err != nil {
		t.Fatalf("CreateChallenge failed: %v", err)
	}
	if err := svc.AcceptChallenge(ctx, bob.ID, challenge.ID); err != nil {
		t.Fatalf("AcceptChallenge failed: %v", err)
	}

	if err := svc.CompleteChallenge(ctx, challenge.ID, bob.ID); !errors.Is(err, ErrCompletionUnsupported) {
		t.Errorf("expected ErrCompletionUnsupported, got %v", err)
	}
}
