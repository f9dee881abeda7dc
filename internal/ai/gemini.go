package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lyceum/internal/config"
)

// geminiGenerator calls the Gemini generateContent REST endpoint.
type geminiGenerator struct {
	cfg    config.AIConfig
	client *http.Client
}

// NewGeminiGenerator creates a Gemini-backed question generator.
func NewGeminiGenerator(cfg config.AIConfig) QuestionGenerator {
	return &geminiGenerator{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
	Config   *geminiGenCfg   `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenCfg struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GenerateQuestions prompts the model for a JSON array of questions and
// parses the reply. Any malformed or short reply is an error; the caller
// refunds the charge in that case.
func (g *geminiGenerator) GenerateQuestions(ctx context.Context, req GenerationRequest) ([]GeneratedQuestion, error) {
	if req.Count <= 0 {
		return nil, fmt.Errorf("question count must be positive, got %d", req.Count)
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: buildPrompt(req)}}},
		},
		Config: &geminiGenCfg{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimSuffix(g.cfg.Endpoint, "/"), g.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read generation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation request returned status %d: %s", resp.StatusCode, respBody)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("generation response contained no candidates")
	}

	var questions []GeneratedQuestion
	text := parsed.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(text), &questions); err != nil {
		return nil, fmt.Errorf("model returned malformed question JSON: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("model returned no questions")
	}
	return questions, nil
}

func buildPrompt(req GenerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d multiple-choice exam questions about %q", req.Count, req.Topic)
	if req.CourseCode != "" {
		fmt.Fprintf(&b, " for the course %s", req.CourseCode)
	}
	fmt.Fprintf(&b, " at %s difficulty.", req.Difficulty)
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&b, " Focus on: %s.", strings.Join(req.Keywords, ", "))
	}
	if req.SourceContent != "" {
		fmt.Fprintf(&b, " Base every question on the following study material:\n---\n%s\n---\n", req.SourceContent)
	}
	b.WriteString(` Respond with a JSON array only, where each element has the shape` +
		` {"content": string, "options": [string, string, string, string],` +
		` "answer": "A"|"B"|"C"|"D", "difficulty": string, "keywords": [string]}.`)
	return b.String()
}
