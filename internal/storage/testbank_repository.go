package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lyceum/internal/models"
)

// ErrTestbankNotFound is returned when a testbank cannot be found.
var ErrTestbankNotFound = errors.New("testbank not found")

// TestbankRepository defines the interface for testbank and question data operations.
type TestbankRepository interface {
	CreateTestbank(ctx context.Context, testbank *models.Testbank) error
	GetTestbankByID(ctx context.Context, id uint) (*models.Testbank, error)
	UpdateTestbank(ctx context.Context, testbank *models.Testbank) error
	DeleteTestbank(ctx context.Context, id uint) error
	ListTestbanksForOwner(ctx context.Context, ownerID uint) ([]models.Testbank, error)
	ListPublicTestbanks(ctx context.Context, limit, offset int) ([]models.Testbank, error)
	AddQuestions(ctx context.Context, questions []models.Question) error
	GetQuestionsByTestbankID(ctx context.Context, testbankID uint) ([]models.Question, error)
}

type gormTestbankRepository struct {
	db *gorm.DB
}

// NewGormTestbankRepository creates a new GORM-backed testbank repository.
func NewGormTestbankRepository(db *gorm.DB) TestbankRepository {
	return &gormTestbankRepository{db: db}
}

func (r *gormTestbankRepository) CreateTestbank(ctx context.Context, testbank *models.Testbank) error {
	return r.db.WithContext(ctx).Create(testbank).Error
}

func (r *gormTestbankRepository) GetTestbankByID(ctx context.Context, id uint) (*models.Testbank, error) {
	var testbank models.Testbank
	err := r.db.WithContext(ctx).Preload("Questions").First(&testbank, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestbankNotFound
		}
		return nil, err
	}
	return &testbank, nil
}

func (r *gormTestbankRepository) UpdateTestbank(ctx context.Context, testbank *models.Testbank) error {
	return r.db.WithContext(ctx).Save(testbank).Error
}

func (r *gormTestbankRepository) DeleteTestbank(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Testbank{}, id).Error
}

func (r *gormTestbankRepository) ListTestbanksForOwner(ctx context.Context, ownerID uint) ([]models.Testbank, error) {
	var testbanks []models.Testbank
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&testbanks).Error
	return testbanks, err
}

func (r *gormTestbankRepository) ListPublicTestbanks(ctx context.Context, limit, offset int) ([]models.Testbank, error) {
	var testbanks []models.Testbank
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("visibility = ?", models.TestbankPublic).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&testbanks).Error
	return testbanks, err
}

func (r *gormTestbankRepository) AddQuestions(ctx context.Context, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&questions).Error
}

func (r *gormTestbankRepository) GetQuestionsByTestbankID(ctx context.Context, testbankID uint) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Where("testbank_id = ?", testbankID).
		Order("id ASC").
		Find(&questions).Error
	return questions, err
}
