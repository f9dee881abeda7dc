package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"lyceum/internal/ai"
	"lyceum/internal/config"
	"lyceum/internal/models"
	"lyceum/internal/storage"
)

// fakeGenerator returns canned questions or a fixed error.
type fakeGenerator struct {
	questions []ai.GeneratedQuestion
	err       error
	calls     int
}

func (f *fakeGenerator) GenerateQuestions(ctx context.Context, req ai.GenerationRequest) ([]ai.GeneratedQuestion, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.questions, nil
}

func cannedQuestions(n int) []ai.GeneratedQuestion {
	questions := make([]ai.GeneratedQuestion, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, ai.GeneratedQuestion{
			Content:    fmt.Sprintf("What is %d + %d?", i, i),
			Options:    []string{"0", fmt.Sprintf("%d", 2*i), "42"},
			Answer:     fmt.Sprintf("%d", 2*i),
			Difficulty: "easy",
		})
	}
	return questions
}

func newTestbankEnv(t *testing.T, db *gorm.DB, generator ai.QuestionGenerator) (TestbankService, CreditsService) {
	t.Helper()
	credits := NewCreditsService(db, storage.NewGormUserRepository(db))
	cfg := config.CreditsConfig{SignupBonus: 100, GenerationAward: 20, QuestionsPerUnit: 5}
	svc := NewTestbankService(db, storage.NewGormTestbankRepository(db), credits, generator, cfg)
	return svc, credits
}

func TestGenerateQuestionsSuccess(t *testing.T) {
	db := newTestDB(t)
	generator := &fakeGenerator{questions: cannedQuestions(10)}
	svc, credits := newTestbankEnv(t, db, generator)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 50)
	testbank, err := svc.CreateTestbank(ctx, alice.ID, "Algebra", "", models.TestbankPrivate)
	if err != nil {
		t.Fatalf("CreateTestbank failed: %v", err)
	}

	questions, err := svc.GenerateQuestions(ctx, testbank.ID, alice.ID, ai.GenerationRequest{Topic: "algebra", Count: 10})
	if err != nil {
		t.Fatalf("GenerateQuestions failed: %v", err)
	}
	if len(questions) != 10 {
		t.Errorf("expected 10 questions, got %d", len(questions))
	}

	// 10 questions at 5 per unit costs 2; the award adds 20.
	balance, err := credits.Balance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if balance != 50-2+20 {
		t.Errorf("expected balance %d, got %d", 50-2+20, balance)
	}

	stored, err := svc.GetTestbank(ctx, testbank.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetTestbank failed: %v", err)
	}
	if stored.GenerationMethod != models.GenerationAI {
		t.Errorf("expected testbank marked AI-generated, got %s", stored.GenerationMethod)
	}
}

func TestGenerateQuestionsFailureRefunds(t *testing.T) {
	db := newTestDB(t)
	generator := &fakeGenerator{err: errors.New("model unavailable")}
	svc, credits := newTestbankEnv(t, db, generator)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 50)
	testbank, err := svc.CreateTestbank(ctx, alice.ID, "Algebra", "", models.TestbankPrivate)
	if err != nil {
		t.Fatalf("CreateTestbank failed: %v", err)
	}

	_, err = svc.GenerateQuestions(ctx, testbank.ID, alice.ID, ai.GenerationRequest{Topic: "algebra", Count: 10})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}

	// The charge and the refund cancel out.
	balance, err := credits.Balance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if balance != 50 {
		t.Errorf("expected refunded balance 50, got %d", balance)
	}

	// Both entries stay in the ledger for the audit trail.
	history, err := credits.History(ctx, alice.ID, 10, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected charge and refund entries, got %d", len(history))
	}
}

func TestGenerateQuestionsStorageFailureRefunds(t *testing.T) {
	db := newTestDB(t)
	generator := &fakeGenerator{questions: cannedQuestions(10)}
	svc, credits := newTestbankEnv(t, db, generator)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 50)
	testbank, err := svc.CreateTestbank(ctx, alice.ID, "Algebra", "", models.TestbankPrivate)
	if err != nil {
		t.Fatalf("CreateTestbank failed: %v", err)
	}

	// Break the insert target so storing the generated questions fails.
	if err := db.Migrator().DropTable(&models.Question{}); err != nil {
		t.Fatalf("failed to drop questions table: %v", err)
	}

	if _, err := svc.GenerateQuestions(ctx, testbank.ID, alice.ID, ai.GenerationRequest{Topic: "algebra", Count: 10}); err == nil {
		t.Fatal("expected an error when storing questions fails")
	}

	balance, err := credits.Balance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if balance != 50 {
		t.Errorf("expected refunded balance 50, got %d", balance)
	}

	history, err := credits.History(ctx, alice.ID, 10, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected charge and refund entries, got %d", len(history))
	}
}

func TestGenerateQuestionsInsufficientCredits(t *testing.T) {
	db := newTestDB(t)
	generator := &fakeGenerator{questions: cannedQuestions(10)}
	svc, _ := newTestbankEnv(t, db, generator)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	testbank, err := svc.CreateTestbank(ctx, alice.ID, "Algebra", "", models.TestbankPrivate)
	if err != nil {
		t.Fatalf("CreateTestbank failed: %v", err)
	}

	_, err = svc.GenerateQuestions(ctx, testbank.ID, alice.ID, ai.GenerationRequest{Topic: "algebra", Count: 10})
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if generator.calls != 0 {
		t.Errorf("generator must not be called when the charge fails, got %d calls", generator.calls)
	}
}

func TestGenerateQuestionsOwnerAndCountChecks(t *testing.T) {
	db := newTestDB(t)
	generator := &fakeGenerator{questions: cannedQuestions(5)}
	svc, _ := newTestbankEnv(t, db, generator)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 50)
	bob := createTestUser(t, db, "bob", 50)
	testbank, err := svc.CreateTestbank(ctx, alice.ID, "Algebra", "", models.TestbankPrivate)
	if err != nil {
		t.Fatalf("CreateTestbank failed: %v", err)
	}

	if _, err := svc.GenerateQuestions(ctx, testbank.ID, bob.ID, ai.GenerationRequest{Count: 5}); !errors.Is(err, ErrNotTestbankOwner) {
		t.Errorf("expected ErrNotTestbankOwner, got %v", err)
	}
	if _, err := svc.GenerateQuestions(ctx, testbank.ID, alice.ID, ai.GenerationRequest{Count: 0}); !errors.Is(err, ErrInvalidQuestionCount) {
		t.Errorf("expected ErrInvalidQuestionCount for zero, got %v", err)
	}
	if _, err := svc.GenerateQuestions(ctx, testbank.ID, alice.ID, ai.GenerationRequest{Count: 51}); !errors.Is(err, ErrInvalidQuestionCount) {
		t.Errorf("expected ErrInvalidQuestionCount above the cap, got %v", err)
	}
}

func TestTestbankVisibility(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestbankEnv(t, db, &fakeGenerator{})
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", 0)
	bob := createTestUser(t, db, "bob", 0)

	private, err := svc.CreateTestbank(ctx, alice.ID, "Private notes", "", models.TestbankPrivate)
	if err != nil {
		t.Fatalf("CreateTestbank failed: %v", err)
	}
	public, err := svc.CreateTestbank(ctx, alice.ID, "Shared notes", "", models.TestbankPublic)
	if err != nil {
		t.Fatalf("CreateTestbank failed: %v", err)
	}

	if _, err := svc.GetTestbank(ctx, private.ID, bob.ID); !errors.Is(err, ErrTestbankNotVisible) {
		t.Errorf("expected ErrTestbankNotVisible for bob, got %v", err)
	}
	if _, err := svc.GetTestbank(ctx, private.ID, alice.ID); err != nil {
		t.Errorf("owner must see their private testbank, got %v", err)
	}
	if _, err := svc.GetTestbank(ctx, public.ID, bob.ID); err != nil {
		t.Errorf("public testbank must be visible to bob, got %v", err)
	}

	listed, err := svc.ListPublicTestbanks(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListPublicTestbanks failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != public.ID {
		t.Errorf("expected only the public testbank listed, got %+v", listed)
	}
}
