package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lyceum/internal/models"
)

// FollowRepository defines the interface for follow-edge data operations.
type FollowRepository interface {
	Create(ctx context.Context, follow *models.Follow) error
	Delete(ctx context.Context, followerID, followingID uint) (bool, error)
	Exists(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowerIDs(ctx context.Context, userID uint) ([]uint, error)
	GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	ListFollowers(ctx context.Context, userID uint) ([]models.User, error)
	ListFollowing(ctx context.Context, userID uint) ([]models.User, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
}

type gormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a new GORM-backed follow repository.
func NewGormFollowRepository(db *gorm.DB) FollowRepository {
	return &gormFollowRepository{db: db}
}

// Create inserts the follow edge. The composite primary key turns a duplicate
// follow into gorm.ErrDuplicatedKey, which callers translate into their own
// already-following error.
func (r *gormFollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	return r.db.WithContext(ctx).Create(follow).Error
}

// Delete removes the follow edge and reports whether a row was deleted.
func (r *gormFollowRepository) Delete(ctx context.Context, followerID, followingID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormFollowRepository) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormFollowRepository) GetFollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("following_id = ?", userID).
		Pluck("follower_id", &ids).Error
	return ids, err
}

func (r *gormFollowRepository) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	return ids, err
}

func (r *gormFollowRepository) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	return users, err
}

func (r *gormFollowRepository) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	return users, err
}

func (r *gormFollowRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("following_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *gormFollowRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}

// IsDuplicateKey reports whether err is a unique or primary key violation.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
