package storage

import (
	"context"

	"gorm.io/gorm"

	"lyceum/internal/models"
)

// LedgerRepository defines the interface for credits ledger data operations.
// Entries are append-only; there are no update or delete operations.
type LedgerRepository interface {
	Append(ctx context.Context, entry *models.LedgerEntry) error
	GetEntriesForUser(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, error)
	SumForUser(ctx context.Context, userID uint) (int64, error)
}

type gormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GORM-backed ledger repository.
func NewGormLedgerRepository(db *gorm.DB) LedgerRepository {
	return &gormLedgerRepository{db: db}
}

func (r *gormLedgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *gormLedgerRepository) GetEntriesForUser(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}

// SumForUser totals a user's ledger entries. The credits service compares
// this against users.credits when verifying ledger consistency.
func (r *gormLedgerRepository) SumForUser(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
