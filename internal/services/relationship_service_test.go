package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"lyceum/internal/models"
	"lyceum/internal/storage"
)

func newRelationshipService(t *testing.T, db *gorm.DB, notifier Notifier) RelationshipService {
	t.Helper()
	return NewRelationshipService(
		db,
		storage.NewGormUserRepository(db),
		storage.NewGormFollowRepository(db),
		storage.NewGormFriendRequestRepository(db),
		storage.NewGormFriendshipRepository(db),
		notifier,
	)
}

func TestFollowAndUnfollow(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := newRelationshipService(t, db, notifier)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	if err := svc.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].UserID != bob.ID {
		t.Errorf("expected bob to be notified, got %+v", notifier.sent)
	}

	followers, err := svc.ListFollowers(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListFollowers failed: %v", err)
	}
	if len(followers) != 1 || followers[0].ID != alice.ID {
		t.Errorf("expected alice in bob's followers, got %+v", followers)
	}

	if err := svc.Unfollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Unfollow failed: %v", err)
	}
	if err := svc.Unfollow(ctx, alice.ID, bob.ID); !errors.Is(err, ErrNotFollowing) {
		t.Errorf("expected ErrNotFollowing on second unfollow, got %v", err)
	}
}

func TestFollowDuplicate(t *testing.T) {
	db := newTestDB(t)
	svc := newRelationshipService(t, db, nil)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	if err := svc.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("first Follow failed: %v", err)
	}
	if err := svc.Follow(ctx, alice.ID, bob.ID); !errors.Is(err, ErrAlreadyFollowing) {
		t.Errorf("expected ErrAlreadyFollowing, got %v", err)
	}
}

func TestFollowSelfAndMissingTarget(t *testing.T) {
	db := newTestDB(t)
	svc := newRelationshipService(t, db, nil)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)

	if err := svc.Follow(ctx, alice.ID, alice.ID); !errors.Is(err, ErrSelfRelationship) {
		t.Errorf("expected ErrSelfRelationship, got %v", err)
	}
	if err := svc.Follow(ctx, alice.ID, 9999); !errors.Is(err, ErrTargetUserNotFound) {
		t.Errorf("expected ErrTargetUserNotFound, got %v", err)
	}
}

func TestFriendRequestAcceptCreatesFriendship(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := newRelationshipService(t, db, notifier)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	request, err := svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendFriendRequest failed: %v", err)
	}
	if request.Status != models.FriendRequestStatusPending {
		t.Errorf("expected pending request, got %s", request.Status)
	}

	pending, err := svc.ListPendingRequests(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListPendingRequests failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending request for bob, got %d", len(pending))
	}

	if err := svc.AcceptFriendRequest(ctx, bob.ID, request.ID); err != nil {
		t.Fatalf("AcceptFriendRequest failed: %v", err)
	}

	areFriends, err := svc.AreFriends(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("AreFriends failed: %v", err)
	}
	if !areFriends {
		t.Error("expected alice and bob to be friends after accept")
	}

	// Accepting again must fail: the request is no longer pending.
	if err := svc.AcceptFriendRequest(ctx, bob.ID, request.ID); !errors.Is(err, ErrRequestNotPending) {
		t.Errorf("expected ErrRequestNotPending on second accept, got %v", err)
	}
}

func TestFriendRequestOnlyReceiverResponds(t *testing.T) {
	db := newTestDB(t)
	svc := newRelationshipService(t, db, nil)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)
	carol := createTestUser(t, db, "carol", 0)

	request, err := svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendFriendRequest failed: %v", err)
	}

	if err := svc.AcceptFriendRequest(ctx, carol.ID, request.ID); !errors.Is(err, ErrNotReceiverOfRequest) {
		t.Errorf("expected ErrNotReceiverOfRequest for carol accepting, got %v", err)
	}
	if err := svc.AcceptFriendRequest(ctx, alice.ID, request.ID); !errors.Is(err, ErrNotReceiverOfRequest) {
		t.Errorf("expected ErrNotReceiverOfRequest for sender accepting, got %v", err)
	}
}

func TestFriendRequestDecline(t *testing.T) {
	db := newTestDB(t)
	svc := newRelationshipService(t, db, nil)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	request, err := svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendFriendRequest failed: %v", err)
	}
	if err := svc.DeclineFriendRequest(ctx, bob.ID, request.ID); err != nil {
		t.Fatalf("DeclineFriendRequest failed: %v", err)
	}

	areFriends, err := svc.AreFriends(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("AreFriends failed: %v", err)
	}
	if areFriends {
		t.Error("declined request must not create a friendship")
	}

	// A declined request no longer blocks a new one.
	if _, err := svc.SendFriendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Errorf("expected a new request after decline, got %v", err)
	}
}

func TestFriendRequestCancelSenderOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newRelationshipService(t, db, nil)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	request, err := svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendFriendRequest failed: %v", err)
	}

	if err := svc.CancelFriendRequest(ctx, bob.ID, request.ID); !errors.Is(err, ErrNotSenderOfRequest) {
		t.Errorf("expected ErrNotSenderOfRequest for receiver cancelling, got %v", err)
	}
	if err := svc.CancelFriendRequest(ctx, alice.ID, request.ID); err != nil {
		t.Fatalf("CancelFriendRequest failed: %v", err)
	}
	if err := svc.CancelFriendRequest(ctx, alice.ID, request.ID); !errors.Is(err, ErrFriendRequestNotFound) {
		t.Errorf("expected ErrFriendRequestNotFound after cancel, got %v", err)
	}
}

func TestFriendRequestBlockedEitherDirection(t *testing.T) {
	db := newTestDB(t)
	svc := newRelationshipService(t, db, nil)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	if _, err := svc.SendFriendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("SendFriendRequest failed: %v", err)
	}

	// The same direction and the reverse direction both hit the pending
	// request.
	if _, err := svc.SendFriendRequest(ctx, alice.ID, bob.ID); !errors.Is(err, ErrFriendRequestExists) {
		t.Errorf("expected ErrFriendRequestExists, got %v", err)
	}
	if _, err := svc.SendFriendRequest(ctx, bob.ID, alice.ID); !errors.Is(err, ErrFriendRequestExists) {
		t.Errorf("expected ErrFriendRequestExists for reverse direction, got %v", err)
	}
}

func TestSendFriendRequestToExistingFriend(t *testing.T) {
	db := newTestDB(t)
	svc := newRelationshipService(t, db, nil)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	request, err := svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendFriendRequest failed: %v", err)
	}
	if err := svc.AcceptFriendRequest(ctx, bob.ID, request.ID); err != nil {
		t.Fatalf("AcceptFriendRequest failed: %v", err)
	}

	if _, err := svc.SendFriendRequest(ctx, bob.ID, alice.ID); !errors.Is(err, ErrAlreadyFriends) {
		t.Errorf("expected ErrAlreadyFriends, got %v", err)
	}
}

func TestUnfriend(t *testing.T) {
	db := newTestDB(t)
	svc := newRelationshipService(t, db, nil)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	request, err := svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendFriendRequest failed: %v", err)
	}
	if err := svc.AcceptFriendRequest(ctx, bob.ID, request.ID); err != nil {
		t.Fatalf("AcceptFriendRequest failed: %v", err)
	}

	// Order must not matter for the canonical pair.
	if err := svc.Unfriend(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("Unfriend failed: %v", err)
	}
	if err := svc.Unfriend(ctx, alice.ID, bob.ID); !errors.Is(err, ErrNotFriends) {
		t.Errorf("expected ErrNotFriends after unfriend, got %v", err)
	}
}
