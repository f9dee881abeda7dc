package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"lyceum/internal/ai"
	"lyceum/internal/config"
	"lyceum/internal/models"
	"lyceum/internal/storage"
)

var (
	ErrNotTestbankOwner     = errors.New("only the owner can modify this testbank")
	ErrTestbankNotVisible   = errors.New("this testbank is private")
	ErrInvalidQuestionCount = errors.New("question count must be between 1 and 50")
	ErrGenerationFailed     = errors.New("question generation failed")
)

// maxGeneratedQuestions caps one generation request.
const maxGeneratedQuestions = 50

// TestbankService owns testbanks, questions, and the AI generation flow.
type TestbankService interface {
	CreateTestbank(ctx context.Context, ownerID uint, title, description string, visibility models.TestbankVisibility) (*models.Testbank, error)
	GetTestbank(ctx context.Context, testbankID, requesterID uint) (*models.Testbank, error)
	ListMyTestbanks(ctx context.Context, ownerID uint) ([]models.Testbank, error)
	ListPublicTestbanks(ctx context.Context, limit, offset int) ([]models.Testbank, error)
	AddQuestion(ctx context.Context, testbankID, ownerID uint, question *models.Question) error

	// GenerateQuestions charges the owner up front, calls the generator, and
	// either stores the questions plus the completion award, or refunds the
	// charge so the net ledger effect of a failed run is zero.
	GenerateQuestions(ctx context.Context, testbankID, ownerID uint, req ai.GenerationRequest) ([]models.Question, error)
}

type testbankService struct {
	db           *gorm.DB
	testbankRepo storage.TestbankRepository
	credits      CreditsService
	generator    ai.QuestionGenerator
	creditsCfg   config.CreditsConfig
}

// NewTestbankService creates a new TestbankService instance.
func NewTestbankService(
	db *gorm.DB,
	testbankRepo storage.TestbankRepository,
	credits CreditsService,
	generator ai.QuestionGenerator,
	creditsCfg config.CreditsConfig,
) TestbankService {
	return &testbankService{
		db:           db,
		testbankRepo: testbankRepo,
		credits:      credits,
		generator:    generator,
		creditsCfg:   creditsCfg,
	}
}

func (s *testbankService) CreateTestbank(ctx context.Context, ownerID uint, title, description string, visibility models.TestbankVisibility) (*models.Testbank, error) {
	if title == "" {
		return nil, fmt.Errorf("testbank title must not be empty")
	}
	if visibility == "" {
		visibility = models.TestbankPrivate
	}

	testbank := &models.Testbank{
		OwnerID:          ownerID,
		Title:            title,
		Description:      description,
		Visibility:       visibility,
		GenerationMethod: models.GenerationManual,
	}
	if err := s.testbankRepo.CreateTestbank(ctx, testbank); err != nil {
		return nil, fmt.Errorf("failed to create testbank: %w", err)
	}
	return testbank, nil
}

func (s *testbankService) GetTestbank(ctx context.Context, testbankID, requesterID uint) (*models.Testbank, error) {
	testbank, err := s.testbankRepo.GetTestbankByID(ctx, testbankID)
	if err != nil {
		return nil, err
	}
	if testbank.Visibility == models.TestbankPrivate && testbank.OwnerID != requesterID {
		return nil, ErrTestbankNotVisible
	}
	return testbank, nil
}

func (s *testbankService) ListMyTestbanks(ctx context.Context, ownerID uint) ([]models.Testbank, error) {
	return s.testbankRepo.ListTestbanksForOwner(ctx, ownerID)
}

func (s *testbankService) ListPublicTestbanks(ctx context.Context, limit, offset int) ([]models.Testbank, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.testbankRepo.ListPublicTestbanks(ctx, limit, offset)
}

func (s *testbankService) AddQuestion(ctx context.Context, testbankID, ownerID uint, question *models.Question) error {
	testbank, err := s.testbankRepo.GetTestbankByID(ctx, testbankID)
	if err != nil {
		return err
	}
	if testbank.OwnerID != ownerID {
		return ErrNotTestbankOwner
	}

	question.TestbankID = testbankID
	question.AuthorType = models.QuestionAuthorManual
	if question.Type == "" {
		question.Type = "mcq"
	}
	return s.testbankRepo.AddQuestions(ctx, []models.Question{*question})
}

func (s *testbankService) GenerateQuestions(ctx context.Context, testbankID, ownerID uint, req ai.GenerationRequest) ([]models.Question, error) {
	if req.Count < 1 || req.Count > maxGeneratedQuestions {
		return nil, ErrInvalidQuestionCount
	}

	testbank, err := s.testbankRepo.GetTestbankByID(ctx, testbankID)
	if err != nil {
		return nil, err
	}
	if testbank.OwnerID != ownerID {
		return nil, ErrNotTestbankOwner
	}

	// Charge first. If the owner cannot cover the cost the generator is
	// never called.
	cost := generationCost(req.Count, s.creditsCfg.QuestionsPerUnit)
	if err := s.credits.ApplyDelta(ctx, ownerID, -cost, models.ReasonAIGenerationCost, &testbank.ID); err != nil {
		return nil, err
	}

	generated, genErr := s.generator.GenerateQuestions(ctx, req)
	if genErr != nil {
		// Compensate the charge so a failed run nets zero. Both entries stay
		// in the ledger for the audit trail.
		if refundErr := s.credits.ApplyDelta(ctx, ownerID, cost, models.ReasonAIGenerationRefund, &testbank.ID); refundErr != nil {
			log.Printf("Failed to refund generation charge for user %d, testbank %d: %v", ownerID, testbank.ID, refundErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, genErr)
	}

	questions := make([]models.Question, 0, len(generated))
	for _, g := range generated {
		q := models.Question{
			TestbankID: testbankID,
			AuthorType: models.QuestionAuthorAI,
			Type:       "mcq",
			Topic:      req.Topic,
			Content:    g.Content,
			Answer:     g.Answer,
			Difficulty: g.Difficulty,
		}
		if err := q.SetOptions(g.Options); err != nil {
			log.Printf("Skipping generated question with bad options: %v", err)
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		if refundErr := s.credits.ApplyDelta(ctx, ownerID, cost, models.ReasonAIGenerationRefund, &testbank.ID); refundErr != nil {
			log.Printf("Failed to refund generation charge for user %d, testbank %d: %v", ownerID, testbank.ID, refundErr)
		}
		return nil, fmt.Errorf("%w: no usable questions returned", ErrGenerationFailed)
	}

	if err := s.testbankRepo.AddQuestions(ctx, questions); err != nil {
		// The owner gets nothing out of this run, so it refunds like any
		// other failure.
		if refundErr := s.credits.ApplyDelta(ctx, ownerID, cost, models.ReasonAIGenerationRefund, &testbank.ID); refundErr != nil {
			log.Printf("Failed to refund generation charge for user %d, testbank %d: %v", ownerID, testbank.ID, refundErr)
		}
		return nil, fmt.Errorf("failed to store generated questions: %w", err)
	}

	testbank.GenerationMethod = models.GenerationAI
	if err := s.testbankRepo.UpdateTestbank(ctx, testbank); err != nil {
		log.Printf("Failed to mark testbank %d as AI-generated: %v", testbank.ID, err)
	}

	// Completion award for contributing generated content.
	if s.creditsCfg.GenerationAward > 0 {
		if err := s.credits.ApplyDelta(ctx, ownerID, s.creditsCfg.GenerationAward, models.ReasonAITestbankGeneration, &testbank.ID); err != nil {
			log.Printf("Failed to grant generation award to user %d: %v", ownerID, err)
		}
	}

	return questions, nil
}

// generationCost is one credit unit per started batch of perUnit questions.
func generationCost(count, perUnit int) int64 {
	if perUnit <= 0 {
		perUnit = 5
	}
	return int64((count + perUnit - 1) / perUnit)
}
