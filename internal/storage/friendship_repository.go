package storage

import (
	"context"

	"gorm.io/gorm"

	"lyceum/internal/models"
)

// FriendshipRepository defines the interface for friendship data operations.
type FriendshipRepository interface {
	CreateFriendship(ctx context.Context, friendship *models.Friendship) error
	DeleteFriendship(ctx context.Context, userID1, userID2 uint) (bool, error)
	AreUsersFriends(ctx context.Context, userID1, userID2 uint) (bool, error)
	GetFriendIDs(ctx context.Context, userID uint) ([]uint, error)
	ListFriends(ctx context.Context, userID uint) ([]models.User, error)
}

type gormFriendshipRepository struct {
	db *gorm.DB
}

// NewGormFriendshipRepository creates a new GORM-backed friendship repository.
func NewGormFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &gormFriendshipRepository{db: db}
}

// CreateFriendship inserts a friendship row after forcing canonical ID order.
// The unique index on (user_id1, user_id2) makes double-accepts a conflict.
func (r *gormFriendshipRepository) CreateFriendship(ctx context.Context, friendship *models.Friendship) error {
	friendship.EnsureCanonicalOrder()
	return r.db.WithContext(ctx).Create(friendship).Error
}

func (r *gormFriendshipRepository) DeleteFriendship(ctx context.Context, userID1, userID2 uint) (bool, error) {
	if userID1 > userID2 {
		userID1, userID2 = userID2, userID1
	}
	res := r.db.WithContext(ctx).
		Where("user_id1 = ? AND user_id2 = ?", userID1, userID2).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormFriendshipRepository) AreUsersFriends(ctx context.Context, userID1, userID2 uint) (bool, error) {
	if userID1 > userID2 {
		userID1, userID2 = userID2, userID1
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id1 = ? AND user_id2 = ?", userID1, userID2).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetFriendIDs returns the IDs of all friends of the given user. The user can
// appear in either column, so both sides are plucked and merged.
func (r *gormFriendshipRepository) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids1 []uint
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id1 = ?", userID).
		Pluck("user_id2", &ids1).Error
	if err != nil {
		return nil, err
	}

	var ids2 []uint
	err = r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id2 = ?", userID).
		Pluck("user_id1", &ids2).Error
	if err != nil {
		return nil, err
	}

	return append(ids1, ids2...), nil
}

func (r *gormFriendshipRepository) ListFriends(ctx context.Context, userID uint) ([]models.User, error) {
	ids, err := r.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	err = r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}
