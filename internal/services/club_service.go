package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lyceum/internal/models"
	"lyceum/internal/storage"
)

var (
	ErrAlreadyClubMember = errors.New("already a member of this club")
	ErrNotClubMember     = errors.New("not a member of this club")
	ErrClubNameTaken     = errors.New("a club with this name already exists")
	ErrOwnerCannotLeave  = errors.New("the owner cannot leave their own club")
)

// ClubService owns study clubs and their memberships.
type ClubService interface {
	CreateClub(ctx context.Context, ownerID uint, name, description string) (*models.Club, error)
	GetClub(ctx context.Context, clubID uint) (*models.Club, error)
	ListClubs(ctx context.Context, limit, offset int) ([]models.Club, error)
	JoinClub(ctx context.Context, clubID, userID uint) error
	LeaveClub(ctx context.Context, clubID, userID uint) error
	ListMembers(ctx context.Context, clubID uint) ([]models.ClubMember, error)
}

type clubService struct {
	db       *gorm.DB
	clubRepo storage.ClubRepository
}

// NewClubService creates a new ClubService instance.
func NewClubService(db *gorm.DB, clubRepo storage.ClubRepository) ClubService {
	return &clubService{db: db, clubRepo: clubRepo}
}

// CreateClub creates the club with the owner as its first member.
func (s *clubService) CreateClub(ctx context.Context, ownerID uint, name, description string) (*models.Club, error) {
	if name == "" {
		return nil, fmt.Errorf("club name must not be empty")
	}

	var club models.Club
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txClubRepo := storage.NewGormClubRepository(tx)

		club = models.Club{
			Name:        name,
			Description: description,
			OwnerID:     ownerID,
			MemberCount: 1,
		}
		if err := txClubRepo.CreateClub(ctx, &club); err != nil {
			return err
		}

		member := &models.ClubMember{
			ClubID:   club.ID,
			UserID:   ownerID,
			JoinedAt: time.Now(),
		}
		return txClubRepo.AddMember(ctx, member)
	})
	if txErr != nil {
		if storage.IsDuplicateKey(txErr) {
			return nil, ErrClubNameTaken
		}
		return nil, fmt.Errorf("failed to create club: %w", txErr)
	}
	return &club, nil
}

func (s *clubService) GetClub(ctx context.Context, clubID uint) (*models.Club, error) {
	return s.clubRepo.GetClubByID(ctx, clubID)
}

func (s *clubService) ListClubs(ctx context.Context, limit, offset int) ([]models.Club, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.clubRepo.ListClubs(ctx, limit, offset)
}

func (s *clubService) JoinClub(ctx context.Context, clubID, userID uint) error {
	if _, err := s.clubRepo.GetClubByID(ctx, clubID); err != nil {
		return err
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txClubRepo := storage.NewGormClubRepository(tx)

		member := &models.ClubMember{
			ClubID:   clubID,
			UserID:   userID,
			JoinedAt: time.Now(),
		}
		if err := txClubRepo.AddMember(ctx, member); err != nil {
			return err
		}
		return txClubRepo.UpdateMemberCount(ctx, clubID, 1)
	})
	if txErr != nil {
		if storage.IsDuplicateKey(txErr) {
			return ErrAlreadyClubMember
		}
		return fmt.Errorf("failed to join club %d: %w", clubID, txErr)
	}
	return nil
}

func (s *clubService) LeaveClub(ctx context.Context, clubID, userID uint) error {
	club, err := s.clubRepo.GetClubByID(ctx, clubID)
	if err != nil {
		return err
	}
	if club.OwnerID == userID {
		return ErrOwnerCannotLeave
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txClubRepo := storage.NewGormClubRepository(tx)

		removed, err := txClubRepo.RemoveMember(ctx, clubID, userID)
		if err != nil {
			return fmt.Errorf("failed to leave club %d: %w", clubID, err)
		}
		if !removed {
			return ErrNotClubMember
		}
		return txClubRepo.UpdateMemberCount(ctx, clubID, -1)
	})
}

func (s *clubService) ListMembers(ctx context.Context, clubID uint) ([]models.ClubMember, error) {
	if _, err := s.clubRepo.GetClubByID(ctx, clubID); err != nil {
		return nil, err
	}
	return s.clubRepo.ListMembers(ctx, clubID)
}
