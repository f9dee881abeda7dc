package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"lyceum/internal/models"
	"lyceum/internal/storage"
)

func newPostService(t *testing.T, db *gorm.DB, notifier Notifier) PostService {
	t.Helper()
	return NewPostService(
		storage.NewGormPostRepository(db),
		storage.NewGormFollowRepository(db),
		notifier,
	)
}

func TestFeedContainsOwnAndFollowedPosts(t *testing.T) {
	db := newTestDB(t)
	svc := newPostService(t, db, nil)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)
	carol := createTestUser(t, db, "carol", 0)

	// Alice follows bob, not carol.
	followRepo := storage.NewGormFollowRepository(db)
	if err := followRepo.Create(ctx, &models.Follow{FollowerID: alice.ID, FollowingID: bob.ID}); err != nil {
		t.Fatalf("failed to create follow: %v", err)
	}

	if _, err := svc.CreatePost(ctx, alice.ID, "my own post", ""); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if _, err := svc.CreatePost(ctx, bob.ID, "bob's post", ""); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if _, err := svc.CreatePost(ctx, carol.ID, "carol's post", ""); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	feed, err := svc.Feed(ctx, alice.ID, 10, 0)
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected 2 posts in feed, got %d", len(feed))
	}
	for _, post := range feed {
		if post.UserID == carol.ID {
			t.Error("feed must not include posts from unfollowed users")
		}
	}
}

func TestUpvoteOncePerUser(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := newPostService(t, db, notifier)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	post, err := svc.CreatePost(ctx, alice.ID, "hello", "")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if err := svc.Upvote(ctx, post.ID, bob.ID); err != nil {
		t.Fatalf("Upvote failed: %v", err)
	}
	if err := svc.Upvote(ctx, post.ID, bob.ID); !errors.Is(err, ErrAlreadyUpvoted) {
		t.Errorf("expected ErrAlreadyUpvoted, got %v", err)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].UserID != alice.ID {
		t.Errorf("expected the author notified once, got %+v", notifier.sent)
	}

	loaded, err := svc.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if loaded.UpvoteCount != 1 {
		t.Errorf("expected 1 upvote, got %d", loaded.UpvoteCount)
	}

	if err := svc.RemoveUpvote(ctx, post.ID, bob.ID); err != nil {
		t.Fatalf("RemoveUpvote failed: %v", err)
	}
	if err := svc.RemoveUpvote(ctx, post.ID, bob.ID); !errors.Is(err, ErrUpvoteNotFound) {
		t.Errorf("expected ErrUpvoteNotFound, got %v", err)
	}
}

func TestUpvoteOwnPostDoesNotNotify(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := newPostService(t, db, notifier)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	post, err := svc.CreatePost(ctx, alice.ID, "hello", "")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if err := svc.Upvote(ctx, post.ID, alice.ID); err != nil {
		t.Fatalf("Upvote failed: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("self-upvote must not notify, got %+v", notifier.sent)
	}
}

func TestDeletePostPermissions(t *testing.T) {
	db := newTestDB(t)
	svc := newPostService(t, db, nil)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	post, err := svc.CreatePost(ctx, alice.ID, "hello", "")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if err := svc.DeletePost(ctx, post.ID, bob.ID, false); !errors.Is(err, ErrNotPostOwner) {
		t.Errorf("expected ErrNotPostOwner, got %v", err)
	}
	// Admins can delete anyone's post.
	if err := svc.DeletePost(ctx, post.ID, bob.ID, true); err != nil {
		t.Fatalf("admin DeletePost failed: %v", err)
	}
	if _, err := svc.GetPost(ctx, post.ID); !errors.Is(err, storage.ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound after delete, got %v", err)
	}
}

func TestCommentsNotifyAuthor(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := newPostService(t, db, notifier)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	post, err := svc.CreatePost(ctx, alice.ID, "hello", "")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if _, err := svc.AddComment(ctx, post.ID, bob.ID, "nice"); err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if _, err := svc.AddComment(ctx, post.ID, bob.ID, "  "); !errors.Is(err, ErrEmptyPost) {
		t.Errorf("expected ErrEmptyPost for blank comment, got %v", err)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].UserID != alice.ID {
		t.Errorf("expected author notified of comment, got %+v", notifier.sent)
	}

	comments, err := svc.ListComments(ctx, post.ID)
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if len(comments) != 1 {
		t.Errorf("expected 1 comment, got %d", len(comments))
	}
}
