package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"lyceum/internal/models"
	"lyceum/internal/storage"
)

// UserProfile is the public view of a user, enriched with graph counts.
type UserProfile struct {
	models.UserBasicInfo
	Bio            string `json:"bio,omitempty"`
	FollowerCount  int64  `json:"followerCount"`
	FollowingCount int64  `json:"followingCount"`
	Banned         bool   `json:"banned,omitempty"`
}

// UserService serves profiles, search, and the credits leaderboard.
type UserService interface {
	GetProfile(ctx context.Context, userID uint) (*UserProfile, error)
	UpdateProfile(ctx context.Context, userID uint, fullName, bio *string) (*models.User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]models.UserBasicInfo, error)
	// Leaderboard ranks users by credit balance, banned accounts excluded.
	Leaderboard(ctx context.Context, limit int) ([]models.UserBasicInfo, error)
	UploadAvatar(ctx context.Context, userID uint, reader io.Reader, size int64, fileName, mimeType string) (string, error)
}

type userService struct {
	userRepo    storage.UserRepository
	followRepo  storage.FollowRepository
	fileStorage storage.StorageService
}

// NewUserService creates a new UserService instance.
func NewUserService(
	userRepo storage.UserRepository,
	followRepo storage.FollowRepository,
	fileStorage storage.StorageService,
) UserService {
	return &userService{
		userRepo:    userRepo,
		followRepo:  followRepo,
		fileStorage: fileStorage,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*UserProfile, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	followers, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count followers for user %d: %w", userID, err)
	}
	following, err := s.followRepo.CountFollowing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count following for user %d: %w", userID, err)
	}

	return &UserProfile{
		UserBasicInfo: models.UserBasicInfo{
			ID:        user.ID,
			Username:  user.Username,
			FullName:  user.FullName,
			AvatarURL: user.AvatarURL,
			Credits:   user.Credits,
		},
		Bio:            user.Bio,
		FollowerCount:  followers,
		FollowingCount: following,
		Banned:         user.Banned,
	}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, fullName, bio *string) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if fullName != nil {
		user.FullName = strings.TrimSpace(*fullName)
	}
	if bio != nil {
		user.Bio = *bio
	}
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile for user %d: %w", userID, err)
	}
	return user, nil
}

func (s *userService) SearchUsers(ctx context.Context, query string, limit int) ([]models.UserBasicInfo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.UserBasicInfo{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	users, err := s.userRepo.SearchUsers(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return toBasicInfos(users), nil
}

func (s *userService) Leaderboard(ctx context.Context, limit int) ([]models.UserBasicInfo, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	users, err := s.userRepo.GetLeaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return toBasicInfos(users), nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID uint, reader io.Reader, size int64, fileName, mimeType string) (string, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	info, err := s.fileStorage.UploadFile(ctx, reader, size, fileName, mimeType)
	if err != nil {
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}

	user.AvatarURL = info.URL
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return "", fmt.Errorf("failed to save avatar URL for user %d: %w", userID, err)
	}
	return info.URL, nil
}
