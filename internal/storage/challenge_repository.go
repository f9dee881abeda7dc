package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lyceum/internal/models"
)

// ErrChallengeNotFound is returned when a challenge cannot be found.
var ErrChallengeNotFound = errors.New("challenge not found")

// ChallengeRepository defines the interface for challenge data operations.
type ChallengeRepository interface {
	CreateChallenge(ctx context.Context, challenge *models.Challenge) error
	GetChallengeByID(ctx context.Context, id uint) (*models.Challenge, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Challenge, error)

	// UpdateStatus transitions a challenge from fromStatus to toStatus and
	// reports whether the transition happened.
	UpdateStatus(ctx context.Context, challengeID uint, fromStatus, toStatus models.ChallengeStatus) (bool, error)
}

type gormChallengeRepository struct {
	db *gorm.DB
}

// NewGormChallengeRepository creates a new GORM-backed challenge repository.
func NewGormChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &gormChallengeRepository{db: db}
}

func (r *gormChallengeRepository) CreateChallenge(ctx context.Context, challenge *models.Challenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *gormChallengeRepository) GetChallengeByID(ctx context.Context, id uint) (*models.Challenge, error) {
	var challenge models.Challenge
	err := r.db.WithContext(ctx).
		Preload("Challenger").
		Preload("Opponent").
		Preload("Course").
		First(&challenge, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	return &challenge, nil
}

func (r *gormChallengeRepository) ListForUser(ctx context.Context, userID uint) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := r.db.WithContext(ctx).
		Preload("Challenger").
		Preload("Opponent").
		Preload("Course").
		Where("challenger_id = ? OR opponent_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&challenges).Error
	return challenges, err
}

func (r *gormChallengeRepository) UpdateStatus(ctx context.Context, challengeID uint, fromStatus, toStatus models.ChallengeStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Challenge{}).
		Where("id = ? AND status = ?", challengeID, fromStatus).
		Update("status", toStatus)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
