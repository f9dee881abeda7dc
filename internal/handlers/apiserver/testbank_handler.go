package apiserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"lyceum/internal/ai"
	"lyceum/internal/middleware"
	"lyceum/internal/models"
	"lyceum/internal/services"
	"lyceum/internal/storage"
)

// TestbankHandler wraps testbank and question endpoints.
type TestbankHandler struct {
	TestbankService services.TestbankService
	FileStorage     storage.StorageService
	MaxUploadSize   int64
}

// NewTestbankHandler creates a new TestbankHandler instance.
func NewTestbankHandler(testbankService services.TestbankService, fileStorage storage.StorageService, maxUploadSize int64) *TestbankHandler {
	return &TestbankHandler{
		TestbankService: testbankService,
		FileStorage:     fileStorage,
		MaxUploadSize:   maxUploadSize,
	}
}

// CreateTestbankRequest is the body for creating a testbank.
type CreateTestbankRequest struct {
	Title       string                    `json:"title"`
	Description string                    `json:"description,omitempty"`
	Visibility  models.TestbankVisibility `json:"visibility,omitempty"`
}

// CreateTestbank handles POST /testbanks.
func (h *TestbankHandler) CreateTestbank(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req CreateTestbankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	testbank, err := h.TestbankService.CreateTestbank(r.Context(), userID, req.Title, req.Description, req.Visibility)
	if err != nil {
		writeJSONError(w, "failed to create testbank", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusCreated, testbank)
}

// GetTestbank handles GET /testbanks/{testbankId}.
func (h *TestbankHandler) GetTestbank(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	testbankID, err := pathID(r, "testbankId")
	if err != nil {
		writeJSONError(w, "invalid testbank id", http.StatusBadRequest)
		return
	}

	testbank, err := h.TestbankService.GetTestbank(r.Context(), testbankID, userID)
	if err != nil {
		writeTestbankError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, testbank)
}

// ListMine handles GET /testbanks/mine.
func (h *TestbankHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	testbanks, err := h.TestbankService.ListMyTestbanks(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "failed to list testbanks", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, testbanks)
}

// ListPublic handles GET /testbanks.
func (h *TestbankHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	testbanks, err := h.TestbankService.ListPublicTestbanks(r.Context(), limit, offset)
	if err != nil {
		writeJSONError(w, "failed to list testbanks", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, testbanks)
}

// AddQuestionRequest is the body for adding a question manually.
type AddQuestionRequest struct {
	Content    string   `json:"content"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	Difficulty string   `json:"difficulty,omitempty"`
	Topic      string   `json:"topic,omitempty"`
}

// AddQuestion handles POST /testbanks/{testbankId}/questions.
func (h *TestbankHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	testbankID, err := pathID(r, "testbankId")
	if err != nil {
		writeJSONError(w, "invalid testbank id", http.StatusBadRequest)
		return
	}

	var req AddQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Content == "" || req.Answer == "" || len(req.Options) == 0 {
		writeJSONError(w, "content, options and answer are required", http.StatusBadRequest)
		return
	}

	question := models.Question{
		Content:    req.Content,
		Answer:     req.Answer,
		Difficulty: req.Difficulty,
		Topic:      req.Topic,
	}
	if question.Difficulty == "" {
		question.Difficulty = "medium"
	}
	if err := question.SetOptions(req.Options); err != nil {
		writeJSONError(w, "invalid options", http.StatusBadRequest)
		return
	}

	if err := h.TestbankService.AddQuestion(r.Context(), testbankID, userID, &question); err != nil {
		writeTestbankError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, question)
}

// GenerateRequest is the body for AI question generation. The study material
// arrives either as manualContent here or as a "material" file in a
// multipart form.
type GenerateRequest struct {
	Topic         string   `json:"topic"`
	CourseCode    string   `json:"courseCode,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
	Count         int      `json:"count"`
	Keywords      []string `json:"keywords,omitempty"`
	ManualContent string   `json:"manualContent,omitempty"`
}

// Generate handles POST /testbanks/{testbankId}/generate.
func (h *TestbankHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	testbankID, err := pathID(r, "testbankId")
	if err != nil {
		writeJSONError(w, "invalid testbank id", http.StatusBadRequest)
		return
	}

	var req GenerateRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		req, err = h.parseGenerateForm(w, r)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()
	}

	if req.Difficulty == "" {
		req.Difficulty = "medium"
	}
	if req.ManualContent == "" {
		writeJSONError(w, "a material file or manualContent is required", http.StatusBadRequest)
		return
	}

	questions, err := h.TestbankService.GenerateQuestions(r.Context(), testbankID, userID, ai.GenerationRequest{
		Topic:         req.Topic,
		CourseCode:    req.CourseCode,
		Difficulty:    req.Difficulty,
		Count:         req.Count,
		Keywords:      req.Keywords,
		SourceContent: req.ManualContent,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidQuestionCount):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrInsufficientCredits):
			writeJSONError(w, err.Error(), http.StatusPaymentRequired)
		case errors.Is(err, services.ErrGenerationFailed):
			writeJSONError(w, err.Error(), http.StatusBadGateway)
		default:
			writeTestbankError(w, err)
		}
		return
	}
	writeJSONResponse(w, http.StatusCreated, questions)
}

// parseGenerateForm reads a multipart generation request: the study material
// comes from the "material" file, the remaining fields from form values.
// The uploaded file is kept in file storage so a run can be re-traced.
func (h *TestbankHandler) parseGenerateForm(w http.ResponseWriter, r *http.Request) (GenerateRequest, error) {
	var req GenerateRequest

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadSize)
	if err := r.ParseMultipartForm(h.MaxUploadSize); err != nil {
		return req, fmt.Errorf("file too large or malformed form")
	}

	req.Topic = r.FormValue("topic")
	req.CourseCode = r.FormValue("courseCode")
	req.Difficulty = r.FormValue("difficulty")
	if countValue := r.FormValue("count"); countValue != "" {
		count, err := strconv.Atoi(countValue)
		if err != nil {
			return req, fmt.Errorf("invalid count")
		}
		req.Count = count
	}
	if keywords := r.FormValue("keywords"); keywords != "" {
		for _, keyword := range strings.Split(keywords, ",") {
			if keyword = strings.TrimSpace(keyword); keyword != "" {
				req.Keywords = append(req.Keywords, keyword)
			}
		}
	}

	file, header, err := r.FormFile("material")
	if err != nil {
		return req, fmt.Errorf("missing material file")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return req, fmt.Errorf("failed to read material file")
	}
	req.ManualContent = string(content)

	// Retention is best effort; generation proceeds from the bytes in hand.
	if h.FileStorage != nil {
		if _, err := h.FileStorage.UploadFile(r.Context(), bytes.NewReader(content), int64(len(content)), header.Filename, header.Header.Get("Content-Type")); err != nil {
			log.Printf("Failed to store generation material %q: %v", header.Filename, err)
		}
	}
	return req, nil
}

func writeTestbankError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrTestbankNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrNotTestbankOwner),
		errors.Is(err, services.ErrTestbankNotVisible):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	default:
		writeJSONError(w, "operation failed", http.StatusInternalServerError)
	}
}
