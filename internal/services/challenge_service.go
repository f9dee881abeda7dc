package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"lyceum/internal/models"
	"lyceum/internal/storage"
)

var (
	ErrInvalidCreditPot      = errors.New("credit pot must be positive")
	ErrNotChallengeOpponent  = errors.New("only the opponent can respond to this challenge")
	ErrChallengeNotPending   = errors.New("challenge is not pending")
	ErrCompletionUnsupported = errors.New("challenge completion is not supported yet")
)

// ChallengeService owns credit wagers between users. A challenge moves
// pending -> active (accept) or pending -> declined; there is no completion
// path because no scoring rule has been defined.
type ChallengeService interface {
	CreateChallenge(ctx context.Context, challengerID, opponentID, courseID uint, creditPot int64) (*models.Challenge, error)
	AcceptChallenge(ctx context.Context, opponentID, challengeID uint) error
	DeclineChallenge(ctx context.Context, opponentID, challengeID uint) error
	// CompleteChallenge always fails; it exists so the API shape is stable
	// once a scoring rule lands.
	CompleteChallenge(ctx context.Context, challengeID, winnerID uint) error
	ListChallenges(ctx context.Context, userID uint) ([]models.Challenge, error)
}

type challengeService struct {
	challengeRepo storage.ChallengeRepository
	userRepo      storage.UserRepository
	courseRepo    storage.CourseRepository
	notifier      Notifier
}

// NewChallengeService creates a new ChallengeService instance.
func NewChallengeService(
	challengeRepo storage.ChallengeRepository,
	userRepo storage.UserRepository,
	courseRepo storage.CourseRepository,
	notifier Notifier,
) ChallengeService {
	return &challengeService{
		challengeRepo: challengeRepo,
		userRepo:      userRepo,
		courseRepo:    courseRepo,
		notifier:      notifier,
	}
}

func (s *challengeService) CreateChallenge(ctx context.Context, challengerID, opponentID, courseID uint, creditPot int64) (*models.Challenge, error) {
	if challengerID == opponentID {
		return nil, ErrSelfRelationship
	}
	if creditPot <= 0 {
		return nil, ErrInvalidCreditPot
	}

	if _, err := s.userRepo.GetUserByID(ctx, opponentID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrTargetUserNotFound
		}
		return nil, fmt.Errorf("failed to check opponent %d: %w", opponentID, err)
	}
	if _, err := s.courseRepo.GetCourseByID(ctx, courseID); err != nil {
		return nil, err
	}

	challenge := &models.Challenge{
		ChallengerID: challengerID,
		OpponentID:   opponentID,
		CourseID:     courseID,
		CreditPot:    creditPot,
		Status:       models.ChallengeStatusPending,
	}
	if err := s.challengeRepo.CreateChallenge(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, opponentID, "You have been challenged.", fmt.Sprintf("/challenges/%d", challenge.ID)); err != nil {
			log.Printf("Failed to notify opponent %d: %v", opponentID, err)
		}
	}
	return challenge, nil
}

func (s *challengeService) AcceptChallenge(ctx context.Context, opponentID, challengeID uint) error {
	return s.respond(ctx, opponentID, challengeID, models.ChallengeStatusActive)
}

func (s *challengeService) DeclineChallenge(ctx context.Context, opponentID, challengeID uint) error {
	return s.respond(ctx, opponentID, challengeID, models.ChallengeStatusDeclined)
}

func (s *challengeService) respond(ctx context.Context, opponentID, challengeID uint, toStatus models.ChallengeStatus) error {
	challenge, err := s.challengeRepo.GetChallengeByID(ctx, challengeID)
	if err != nil {
		return err
	}
	if challenge.OpponentID != opponentID {
		return ErrNotChallengeOpponent
	}

	// The transition is status-guarded so two racing responses cannot
	// both take effect.
	updated, err := s.challengeRepo.UpdateStatus(ctx, challengeID, models.ChallengeStatusPending, toStatus)
	if err != nil {
		return fmt.Errorf("failed to update challenge %d: %w", challengeID, err)
	}
	if !updated {
		return ErrChallengeNotPending
	}

	if s.notifier != nil && toStatus == models.ChallengeStatusActive {
		if err := s.notifier.Notify(ctx, challenge.ChallengerID, "Your challenge was accepted.", fmt.Sprintf("/challenges/%d", challengeID)); err != nil {
			log.Printf("Failed to notify challenger %d: %v", challenge.ChallengerID, err)
		}
	}
	return nil
}

func (s *challengeService) CompleteChallenge(ctx context.Context, challengeID, winnerID uint) error {
	return ErrCompletionUnsupported
}

func (s *challengeService) ListChallenges(ctx context.Context, userID uint) ([]models.Challenge, error) {
	return s.challengeRepo.ListForUser(ctx, userID)
}
