package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lyceum/internal/models"
)

// ErrClubNotFound is returned when a club cannot be found.
var ErrClubNotFound = errors.New("club not found")

// ClubRepository defines the interface for club and membership data operations.
type ClubRepository interface {
	CreateClub(ctx context.Context, club *models.Club) error
	GetClubByID(ctx context.Context, id uint) (*models.Club, error)
	ListClubs(ctx context.Context, limit, offset int) ([]models.Club, error)
	AddMember(ctx context.Context, member *models.ClubMember) error
	RemoveMember(ctx context.Context, clubID, userID uint) (bool, error)
	IsMember(ctx context.Context, clubID, userID uint) (bool, error)
	ListMembers(ctx context.Context, clubID uint) ([]models.ClubMember, error)
	UpdateMemberCount(ctx context.Context, clubID uint, delta int) error
}

type gormClubRepository struct {
	db *gorm.DB
}

// NewGormClubRepository creates a new GORM-backed club repository.
func NewGormClubRepository(db *gorm.DB) ClubRepository {
	return &gormClubRepository{db: db}
}

func (r *gormClubRepository) CreateClub(ctx context.Context, club *models.Club) error {
	return r.db.WithContext(ctx).Create(club).Error
}

func (r *gormClubRepository) GetClubByID(ctx context.Context, id uint) (*models.Club, error) {
	var club models.Club
	err := r.db.WithContext(ctx).Preload("Owner").First(&club, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}
	return &club, nil
}

func (r *gormClubRepository) ListClubs(ctx context.Context, limit, offset int) ([]models.Club, error) {
	var clubs []models.Club
	err := r.db.WithContext(ctx).
		Order("member_count DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&clubs).Error
	return clubs, err
}

// AddMember inserts the membership row. A repeat join hits the composite
// primary key and surfaces as gorm.ErrDuplicatedKey.
func (r *gormClubRepository) AddMember(ctx context.Context, member *models.ClubMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *gormClubRepository) RemoveMember(ctx context.Context, clubID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("club_id = ? AND user_id = ?", clubID, userID).
		Delete(&models.ClubMember{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormClubRepository) IsMember(ctx context.Context, clubID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ClubMember{}).
		Where("club_id = ? AND user_id = ?", clubID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormClubRepository) ListMembers(ctx context.Context, clubID uint) ([]models.ClubMember, error) {
	var members []models.ClubMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("club_id = ?", clubID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *gormClubRepository) UpdateMemberCount(ctx context.Context, clubID uint, delta int) error {
	return r.db.WithContext(ctx).Model(&models.Club{}).
		Where("id = ?", clubID).
		Update("member_count", gorm.Expr("member_count + ?", delta)).Error
}
