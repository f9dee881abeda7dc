package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"lyceum/internal/auth"
	"lyceum/internal/config"
	"lyceum/internal/models"
	"lyceum/internal/storage"
)

var (
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailTaken         = errors.New("email is already in use")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserBanned         = errors.New("this account is banned")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// AuthService handles registration, login, and logout.
type AuthService interface {
	Register(ctx context.Context, username, password, email, fullName string) (*models.User, error)
	// Login verifies credentials and returns a signed JWT. Banned accounts
	// cannot log in.
	Login(ctx context.Context, username, password string) (string, *models.User, error)
	// Logout blacklists the token's JTI until its natural expiry.
	Logout(ctx context.Context, claims *auth.Claims) error
}

type authService struct {
	userRepo   storage.UserRepository
	credits    CreditsService
	blacklist  auth.TokenBlacklist
	authConfig config.AuthConfig
	creditsCfg config.CreditsConfig
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(
	userRepo storage.UserRepository,
	credits CreditsService,
	blacklist auth.TokenBlacklist,
	authCfg config.AuthConfig,
	creditsCfg config.CreditsConfig,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		credits:    credits,
		blacklist:  blacklist,
		authConfig: authCfg,
		creditsCfg: creditsCfg,
	}
}

func (s *authService) Register(ctx context.Context, username, password, email, fullName string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username must not be empty")
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	if _, err := s.userRepo.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         models.RoleUser,
	}
	// Email stays NULL when absent so accounts without one never collide on
	// the unique index.
	if email = strings.TrimSpace(email); email != "" {
		user.Email = &email
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if storage.IsDuplicateKey(err) {
			// The username was pre-checked above, so a conflict here is the
			// email index unless we lost a username race.
			if user.Email != nil {
				return nil, ErrEmailTaken
			}
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// The signup bonus goes through the ledger like every other credit
	// change, so fresh accounts verify clean.
	if s.creditsCfg.SignupBonus > 0 {
		if err := s.credits.ApplyDelta(ctx, user.ID, s.creditsCfg.SignupBonus, models.ReasonSignupBonus, nil); err != nil {
			log.Printf("Failed to grant signup bonus to user %d: %v", user.ID, err)
		} else {
			user.Credits = s.creditsCfg.SignupBonus
		}
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}
	if user.Banned {
		return "", nil, ErrUserBanned
	}

	token, err := auth.GenerateToken(user, s.authConfig)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, user, nil
}

func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims.ID == "" {
		return fmt.Errorf("token has no JTI")
	}
	var expiry time.Time
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	return s.blacklist.Add(ctx, claims.ID, expiry)
}
