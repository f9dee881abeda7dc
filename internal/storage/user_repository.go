package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lyceum/internal/models"
)

// ErrUserNotFound is returned when a user cannot be found.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
	GetLeaderboard(ctx context.Context, limit int) ([]models.User, error)
	SetBanned(ctx context.Context, userID uint, banned bool) error

	// AddCredits applies delta to the user's balance only when the result
	// stays non-negative. It reports whether the update took effect.
	AddCredits(ctx context.Context, userID uint, delta int64) (bool, error)
}

type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-backed user repository.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *gormUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *gormUserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	var users []models.User
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("username LIKE ? OR full_name LIKE ?", pattern, pattern).
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *gormUserRepository) GetLeaderboard(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("banned = ?", false).
		Order("credits DESC, id ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *gormUserRepository) SetBanned(ctx context.Context, userID uint, banned bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("banned", banned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddCredits performs a single conditional UPDATE so concurrent debits cannot
// drive the balance below zero.
func (r *gormUserRepository) AddCredits(ctx context.Context, userID uint, delta int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND credits + ? >= 0", userID, delta).
		Update("credits", gorm.Expr("credits + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
