package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"lyceum/internal/models"
	"lyceum/internal/storage"
)

var (
	ErrEmptyPost      = errors.New("post content must not be empty")
	ErrNotPostOwner   = errors.New("only the author can delete this post")
	ErrAlreadyUpvoted = errors.New("post already upvoted")
	ErrUpvoteNotFound = errors.New("upvote not found")
)

// PostWithCounts is a post enriched with its upvote count.
type PostWithCounts struct {
	models.Post
	UpvoteCount int64 `json:"upvoteCount"`
}

// PostService owns the feed: posts, upvotes, and comments.
type PostService interface {
	CreatePost(ctx context.Context, userID uint, content, imageURL string) (*models.Post, error)
	GetPost(ctx context.Context, postID uint) (*PostWithCounts, error)
	// Feed returns recent posts from the user and everyone they follow.
	Feed(ctx context.Context, userID uint, limit, offset int) ([]PostWithCounts, error)
	DeletePost(ctx context.Context, postID, requesterID uint, isAdmin bool) error

	Upvote(ctx context.Context, postID, userID uint) error
	RemoveUpvote(ctx context.Context, postID, userID uint) error

	AddComment(ctx context.Context, postID, userID uint, content string) (*models.Comment, error)
	ListComments(ctx context.Context, postID uint) ([]models.Comment, error)
}

type postService struct {
	postRepo   storage.PostRepository
	followRepo storage.FollowRepository
	notifier   Notifier
}

// NewPostService creates a new PostService instance.
func NewPostService(postRepo storage.PostRepository, followRepo storage.FollowRepository, notifier Notifier) PostService {
	return &postService{
		postRepo:   postRepo,
		followRepo: followRepo,
		notifier:   notifier,
	}
}

func (s *postService) CreatePost(ctx context.Context, userID uint, content, imageURL string) (*models.Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyPost
	}
	post := &models.Post{
		UserID:   userID,
		Content:  content,
		ImageURL: imageURL,
	}
	if err := s.postRepo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

func (s *postService) GetPost(ctx context.Context, postID uint) (*PostWithCounts, error) {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	count, err := s.postRepo.CountUpvotes(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to count upvotes for post %d: %w", postID, err)
	}
	return &PostWithCounts{Post: *post, UpvoteCount: count}, nil
}

func (s *postService) Feed(ctx context.Context, userID uint, limit, offset int) ([]PostWithCounts, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	followingIDs, err := s.followRepo.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load following for user %d: %w", userID, err)
	}
	authorIDs := append(followingIDs, userID)

	posts, err := s.postRepo.ListPostsByUsers(ctx, authorIDs, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed for user %d: %w", userID, err)
	}

	feed := make([]PostWithCounts, 0, len(posts))
	for _, post := range posts {
		count, err := s.postRepo.CountUpvotes(ctx, post.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count upvotes for post %d: %w", post.ID, err)
		}
		feed = append(feed, PostWithCounts{Post: post, UpvoteCount: count})
	}
	return feed, nil
}

func (s *postService) DeletePost(ctx context.Context, postID, requesterID uint, isAdmin bool) error {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != requesterID && !isAdmin {
		return ErrNotPostOwner
	}
	return s.postRepo.DeletePost(ctx, postID)
}

// Upvote records the vote. The composite key on (post, user) makes repeat
// upvotes a database conflict, so the check needs no lock.
func (s *postService) Upvote(ctx context.Context, postID, userID uint) error {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}

	upvote := &models.PostUpvote{PostID: postID, UserID: userID}
	if err := s.postRepo.AddUpvote(ctx, upvote); err != nil {
		if storage.IsDuplicateKey(err) {
			return ErrAlreadyUpvoted
		}
		return fmt.Errorf("failed to upvote post %d: %w", postID, err)
	}

	if post.UserID != userID {
		s.notify(ctx, post.UserID, "Someone upvoted your post.", fmt.Sprintf("/posts/%d", postID))
	}
	return nil
}

func (s *postService) RemoveUpvote(ctx context.Context, postID, userID uint) error {
	removed, err := s.postRepo.RemoveUpvote(ctx, postID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove upvote: %w", err)
	}
	if !removed {
		return ErrUpvoteNotFound
	}
	return nil
}

func (s *postService) AddComment(ctx context.Context, postID, userID uint, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyPost
	}
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
	if err := s.postRepo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if post.UserID != userID {
		s.notify(ctx, post.UserID, "Someone commented on your post.", fmt.Sprintf("/posts/%d", postID))
	}
	return comment, nil
}

func (s *postService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.postRepo.ListComments(ctx, postID)
}

func (s *postService) notify(ctx context.Context, userID uint, content, link string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, content, link); err != nil {
		log.Printf("Failed to notify user %d: %v", userID, err)
	}
}
