package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"lyceum/internal/models"
	"lyceum/internal/storage"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrZeroDelta           = errors.New("credit delta must be non-zero")
)

// LedgerCheck is the result of verifying one user's ledger against their
// materialized balance.
type LedgerCheck struct {
	UserID     uint  `json:"userId"`
	Balance    int64 `json:"balance"`
	LedgerSum  int64 `json:"ledgerSum"`
	Consistent bool  `json:"consistent"`
}

// CreditsService owns every change to user credit balances. All writes go
// through ApplyDelta so the balance and the ledger move together.
type CreditsService interface {
	// ApplyDelta atomically adjusts a user's balance and appends the matching
	// ledger entry. A debit that would leave the balance negative fails with
	// ErrInsufficientCredits and writes nothing.
	ApplyDelta(ctx context.Context, userID uint, delta int64, reason string, relatedEntityID *uint) error
	Balance(ctx context.Context, userID uint) (int64, error)
	History(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, error)
	// VerifyLedger recomputes a user's balance from the ledger and compares
	// it with the materialized value.
	VerifyLedger(ctx context.Context, userID uint) (*LedgerCheck, error)
}

type creditsService struct {
	db       *gorm.DB
	userRepo storage.UserRepository
}

// NewCreditsService creates a new CreditsService instance.
func NewCreditsService(db *gorm.DB, userRepo storage.UserRepository) CreditsService {
	return &creditsService{db: db, userRepo: userRepo}
}

func (s *creditsService) ApplyDelta(ctx context.Context, userID uint, delta int64, reason string, relatedEntityID *uint) error {
	if delta == 0 {
		return ErrZeroDelta
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txUserRepo := storage.NewGormUserRepository(tx)
		txLedgerRepo := storage.NewGormLedgerRepository(tx)

		// The balance update is conditional on the result staying
		// non-negative, so two racing debits cannot both succeed past zero.
		applied, err := txUserRepo.AddCredits(ctx, userID, delta)
		if err != nil {
			return fmt.Errorf("failed to update balance for user %d: %w", userID, err)
		}
		if !applied {
			// Either the user does not exist or the debit would overdraw.
			if _, err := txUserRepo.GetUserByID(ctx, userID); err != nil {
				return err
			}
			return ErrInsufficientCredits
		}

		entry := &models.LedgerEntry{
			UserID:          userID,
			Amount:          delta,
			Reason:          reason,
			RelatedEntityID: relatedEntityID,
		}
		if err := txLedgerRepo.Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to append ledger entry for user %d: %w", userID, err)
		}
		return nil
	})
}

func (s *creditsService) Balance(ctx context.Context, userID uint) (int64, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Credits, nil
}

func (s *creditsService) History(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	ledgerRepo := storage.NewGormLedgerRepository(s.db)
	return ledgerRepo.GetEntriesForUser(ctx, userID, limit, offset)
}

func (s *creditsService) VerifyLedger(ctx context.Context, userID uint) (*LedgerCheck, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	ledgerRepo := storage.NewGormLedgerRepository(s.db)
	sum, err := ledgerRepo.SumForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger for user %d: %w", userID, err)
	}

	check := &LedgerCheck{
		UserID:     userID,
		Balance:    user.Credits,
		LedgerSum:  sum,
		Consistent: user.Credits == sum,
	}
	if !check.Consistent {
		log.Printf("Ledger mismatch for user %d: balance %d, ledger sum %d", userID, user.Credits, sum)
	}
	return check, nil
}
