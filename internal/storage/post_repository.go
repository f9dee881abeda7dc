package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lyceum/internal/models"
)

// ErrPostNotFound is returned when a post cannot be found.
var ErrPostNotFound = errors.New("post not found")

// PostRepository defines the interface for post, upvote, and comment data operations.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	DeletePost(ctx context.Context, id uint) error
	ListPostsByUsers(ctx context.Context, userIDs []uint, limit, offset int) ([]models.Post, error)
	ListPostsByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error)
	AddUpvote(ctx context.Context, upvote *models.PostUpvote) error
	RemoveUpvote(ctx context.Context, postID, userID uint) (bool, error)
	CountUpvotes(ctx context.Context, postID uint) (int64, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, postID uint) ([]models.Comment, error)
}

type gormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a new GORM-backed post repository.
func NewGormPostRepository(db *gorm.DB) PostRepository {
	return &gormPostRepository{db: db}
}

func (r *gormPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *gormPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *gormPostRepository) DeletePost(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Post{}, id).Error
}

func (r *gormPostRepository) ListPostsByUsers(ctx context.Context, userIDs []uint, limit, offset int) ([]models.Post, error) {
	if len(userIDs) == 0 {
		return []models.Post{}, nil
	}
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id IN ?", userIDs).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *gormPostRepository) ListPostsByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// AddUpvote inserts the upvote row. A repeat upvote hits the composite
// primary key and comes back as gorm.ErrDuplicatedKey.
func (r *gormPostRepository) AddUpvote(ctx context.Context, upvote *models.PostUpvote) error {
	return r.db.WithContext(ctx).Create(upvote).Error
}

func (r *gormPostRepository) RemoveUpvote(ctx context.Context, postID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.PostUpvote{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormPostRepository) CountUpvotes(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PostUpvote{}).
		Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

func (r *gormPostRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *gormPostRepository) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}
