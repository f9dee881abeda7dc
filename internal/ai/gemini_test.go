package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lyceum/internal/config"
)

func geminiReply(t *testing.T, questions []GeneratedQuestion) []byte {
	t.Helper()
	text, err := json.Marshal(questions)
	if err != nil {
		t.Fatalf("failed to marshal questions: %v", err)
	}
	reply := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": string(text)}}}},
		},
	}
	body, err := json.Marshal(reply)
	if err != nil {
		t.Fatalf("failed to marshal reply: %v", err)
	}
	return body
}

func TestGenerateQuestionsParsesReply(t *testing.T) {
	want := []GeneratedQuestion{
		{Content: "What is 2+2?", Options: []string{"3", "4", "5", "6"}, Answer: "B", Difficulty: "easy"},
	}

	var gotPath, gotAPIKey, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.Write(geminiReply(t, want))
	}))
	defer server.Close()

	generator := NewGeminiGenerator(config.AIConfig{
		APIKey:         "test-key",
		Model:          "gemini-2.0-flash",
		Endpoint:       server.URL,
		RequestTimeout: 5 * time.Second,
	})

	questions, err := generator.GenerateQuestions(context.Background(), GenerationRequest{
		Topic:         "arithmetic",
		Difficulty:    "easy",
		Count:         1,
		SourceContent: "Addition combines two numbers into their sum.",
	})
	if err != nil {
		t.Fatalf("GenerateQuestions failed: %v", err)
	}
	if gotPath != "/models/gemini-2.0-flash:generateContent" {
		t.Errorf("unexpected request path %s", gotPath)
	}
	if gotAPIKey != "test-key" {
		t.Errorf("expected API key header, got %q", gotAPIKey)
	}
	if !strings.Contains(gotBody, "Addition combines two numbers into their sum.") {
		t.Error("expected the study material included in the prompt")
	}
	if len(questions) != 1 || questions[0].Content != want[0].Content || questions[0].Answer != "B" {
		t.Errorf("unexpected questions: %+v", questions)
	}
}

func TestGenerateQuestionsErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"no candidates", http.StatusOK, `{"candidates": []}`},
		{"malformed question JSON", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"not json"}]}}]}`},
		{"empty question array", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"[]"}]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			generator := NewGeminiGenerator(config.AIConfig{
				Model:          "gemini-2.0-flash",
				Endpoint:       server.URL,
				RequestTimeout: 5 * time.Second,
			})
			if _, err := generator.GenerateQuestions(context.Background(), GenerationRequest{Topic: "x", Count: 1}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
