package services

import (
	"context"
	"errors"
	"testing"

	"lyceum/internal/models"
	"lyceum/internal/storage"
)

func TestClubLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db, storage.NewGormClubRepository(db))
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	club, err := svc.CreateClub(ctx, alice.ID, "Study Group", "weekly sessions")
	if err != nil {
		t.Fatalf("CreateClub failed: %v", err)
	}
	if club.MemberCount != 1 {
		t.Errorf("expected owner counted as first member, got %d", club.MemberCount)
	}

	if _, err := svc.CreateClub(ctx, bob.ID, "Study Group", ""); !errors.Is(err, ErrClubNameTaken) {
		t.Errorf("expected ErrClubNameTaken, got %v", err)
	}

	if err := svc.JoinClub(ctx, club.ID, bob.ID); err != nil {
		t.Fatalf("JoinClub failed: %v", err)
	}
	if err := svc.JoinClub(ctx, club.ID, bob.ID); !errors.Is(err, ErrAlreadyClubMember) {
		t.Errorf("expected ErrAlreadyClubMember, got %v", err)
	}

	reloaded, err := svc.GetClub(ctx, club.ID)
	if err != nil {
		t.Fatalf("GetClub failed: %v", err)
	}
	if reloaded.MemberCount != 2 {
		t.Errorf("expected member count 2, got %d", reloaded.MemberCount)
	}

	members, err := svc.ListMembers(ctx, club.ID)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %d", len(members))
	}

	if err := svc.LeaveClub(ctx, club.ID, alice.ID); !errors.Is(err, ErrOwnerCannotLeave) {
		t.Errorf("expected ErrOwnerCannotLeave, got %v", err)
	}
	if err := svc.LeaveClub(ctx, club.ID, bob.ID); err != nil {
		t.Fatalf("LeaveClub failed: %v", err)
	}
	if err := svc.LeaveClub(ctx, club.ID, bob.ID); !errors.Is(err, ErrNotClubMember) {
		t.Errorf("expected ErrNotClubMember, got %v", err)
	}

	reloaded, err = svc.GetClub(ctx, club.ID)
	if err != nil {
		t.Fatalf("GetClub failed: %v", err)
	}
	if reloaded.MemberCount != 1 {
		t.Errorf("expected member count back to 1, got %d", reloaded.MemberCount)
	}
}

func TestJoinMissingClub(t *testing.T) {
	db := newTestDB(t)
	svc := NewClubService(db, storage.NewGormClubRepository(db))
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	if err := svc.JoinClub(ctx, 9999, alice.ID); !errors.Is(err, storage.ErrClubNotFound) {
		t.Errorf("expected ErrClubNotFound, got %v", err)
	}
	var count int64
	if err := db.Model(&models.ClubMember{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count members: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no membership rows, got %d", count)
	}
}
