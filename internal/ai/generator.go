package ai

import "context"

// GenerationRequest describes a batch of questions to generate.
// SourceContent carries the study material (an uploaded file or pasted text)
// the questions should be drawn from; when empty the model works from the
// topic alone.
type GenerationRequest struct {
	Topic         string   `json:"topic"`
	CourseCode    string   `json:"courseCode,omitempty"`
	Difficulty    string   `json:"difficulty"`
	Count         int      `json:"count"`
	Keywords      []string `json:"keywords,omitempty"`
	SourceContent string   `json:"manualContent,omitempty"`
}

// GeneratedQuestion is a single question produced by a generator.
type GeneratedQuestion struct {
	Content    string   `json:"content"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	Difficulty string   `json:"difficulty"`
	Keywords   []string `json:"keywords,omitempty"`
}

// QuestionGenerator produces exam questions for a topic. Implementations
// call an external model, so every method takes a context and can fail.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, req GenerationRequest) ([]GeneratedQuestion, error)
}
