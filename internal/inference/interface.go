package inference

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client interface defines the methods for AI inference operations
type Client interface {
	Translate(ctx context.Context, params TranslateRequest) (string, error)
	Generate(ctx context.Context, params GenerateRequest) (string, error)
	ValidateTranslation(ctx context.Context, params ValidateTranslationRequest) (ValidateTranslationResponse, error)
}

// TranslateRequest holds a text and the language codes to translate between
type TranslateRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

// GenerateRequest is a free-form prompt. SystemPrompt is optional.
type GenerateRequest struct {
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"systemPrompt,omitempty"`
	Temperature  float32 `json:"temperature,omitempty"`
}

// ValidateTranslationRequest asks whether a student's answer is an acceptable translation
// of SourceText. Reference is the machine translation the student was compared with.
type ValidateTranslationRequest struct {
	SourceText     string `json:"sourceText"`
	StudentAnswer  string `json:"studentAnswer"`
	Reference      string `json:"reference"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

type ValidateTranslationResponse struct {
	StudentCorrect   bool   `json:"studentCorrect"`
	ReferenceCorrect bool   `json:"chromeCorrect"`
	BestTranslation  string `json:"bestTranslation"`
	Feedback         string `json:"feedback"`
	Confidence       int    `json:"confidence"` // 0-100
}

const (
	DefaultMaxRetryAttempts = 3
)
