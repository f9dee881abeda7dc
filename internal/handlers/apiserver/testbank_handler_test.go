package apiserver

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"lyceum/internal/ai"
	"lyceum/internal/middleware"
	"lyceum/internal/models"
	"lyceum/internal/storage"
)

// stubTestbankService records the generation request it receives.
type stubTestbankService struct {
	lastGenerate ai.GenerationRequest
}

func (s *stubTestbankService) CreateTestbank(ctx context.Context, ownerID uint, title, description string, visibility models.TestbankVisibility) (*models.Testbank, error) {
	return &models.Testbank{}, nil
}

func (s *stubTestbankService) GetTestbank(ctx context.Context, testbankID, requesterID uint) (*models.Testbank, error) {
	return &models.Testbank{}, nil
}

func (s *stubTestbankService) ListMyTestbanks(ctx context.Context, ownerID uint) ([]models.Testbank, error) {
	return nil, nil
}

func (s *stubTestbankService) ListPublicTestbanks(ctx context.Context, limit, offset int) ([]models.Testbank, error) {
	return nil, nil
}

func (s *stubTestbankService) AddQuestion(ctx context.Context, testbankID, ownerID uint, question *models.Question) error {
	return nil
}

func (s *stubTestbankService) GenerateQuestions(ctx context.Context, testbankID, ownerID uint, req ai.GenerationRequest) ([]models.Question, error) {
	s.lastGenerate = req
	return []models.Question{{TestbankID: testbankID}}, nil
}

// stubFileStorage records uploads without touching the filesystem.
type stubFileStorage struct {
	uploads []string
}

func (s *stubFileStorage) UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*storage.FileInfo, error) {
	s.uploads = append(s.uploads, fileName)
	return &storage.FileInfo{FileName: fileName, Size: fileSize}, nil
}

func newGenerateRequest(t *testing.T, body io.Reader, contentType string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/testbanks/7/generate", body)
	req.Header.Set("Content-Type", contentType)
	req = mux.SetURLVars(req, map[string]string{"testbankId": "7"})
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, uint(1))
	return req.WithContext(ctx)
}

func TestGenerateForwardsManualContent(t *testing.T) {
	service := &stubTestbankService{}
	handler := NewTestbankHandler(service, &stubFileStorage{}, 1<<20)

	body := `{"topic":"biology","count":5,"manualContent":"Photosynthesis converts light energy."}`
	rec := httptest.NewRecorder()
	handler.Generate(rec, newGenerateRequest(t, strings.NewReader(body), "application/json"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if service.lastGenerate.SourceContent != "Photosynthesis converts light energy." {
		t.Errorf("expected manual content forwarded, got %q", service.lastGenerate.SourceContent)
	}
	if service.lastGenerate.Topic != "biology" || service.lastGenerate.Count != 5 {
		t.Errorf("unexpected generation request: %+v", service.lastGenerate)
	}
}

func TestGenerateRequiresSourceMaterial(t *testing.T) {
	service := &stubTestbankService{}
	handler := NewTestbankHandler(service, &stubFileStorage{}, 1<<20)

	body := `{"topic":"biology","count":5}`
	rec := httptest.NewRecorder()
	handler.Generate(rec, newGenerateRequest(t, strings.NewReader(body), "application/json"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without material, got %d", rec.Code)
	}
	if service.lastGenerate.Count != 0 {
		t.Errorf("service must not be called without material, got %+v", service.lastGenerate)
	}
}

func TestGenerateAcceptsMaterialFile(t *testing.T) {
	service := &stubTestbankService{}
	fileStorage := &stubFileStorage{}
	handler := NewTestbankHandler(service, fileStorage, 1<<20)

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("material", "notes.txt")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte("Mitochondria are the powerhouse of the cell.")); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	writer.WriteField("topic", "biology")
	writer.WriteField("count", "3")
	writer.WriteField("keywords", "cells, energy")
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close form: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.Generate(rec, newGenerateRequest(t, &form, writer.FormDataContentType()))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if service.lastGenerate.SourceContent != "Mitochondria are the powerhouse of the cell." {
		t.Errorf("expected file content forwarded, got %q", service.lastGenerate.SourceContent)
	}
	if service.lastGenerate.Count != 3 || len(service.lastGenerate.Keywords) != 2 {
		t.Errorf("unexpected generation request: %+v", service.lastGenerate)
	}
	if len(fileStorage.uploads) != 1 || fileStorage.uploads[0] != "notes.txt" {
		t.Errorf("expected the material file retained, got %+v", fileStorage.uploads)
	}
}
