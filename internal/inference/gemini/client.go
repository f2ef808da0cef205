package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/at-ishikawa/fluentai/internal/inference"
	"resty.dev/v3"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"
)

// Client calls the Gemini generateContent REST API.
type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
}

func NewClient(apiKey, model string, retryAttempts uint) *Client {
	if model == "" {
		model = DefaultModel
	}
	client := resty.New()
	client.SetBaseURL(DefaultBaseURL)
	client.SetHeader("x-goog-api-key", apiKey)
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient:       client,
		model:            model,
		maxRetryAttempts: retryAttempts,
	}
}

func (client Client) Close() error {
	return client.httpClient.Close()
}

func (client Client) GetModel() string {
	return client.model
}

type Part struct {
	Text string `json:"text"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type GenerationConfig struct {
	Temperature      float32 `json:"temperature,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type GenerateContentRequest struct {
	SystemInstruction *Content         `json:"system_instruction,omitempty"`
	Contents          []Content        `json:"contents"`
	GenerationConfig  GenerationConfig `json:"generationConfig,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type PromptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type GenerateContentResponse struct {
	Candidates     []Candidate    `json:"candidates"`
	PromptFeedback PromptFeedback `json:"promptFeedback"`
}

// Translate implements the inference.Client interface
func (client *Client) Translate(ctx context.Context, params inference.TranslateRequest) (string, error) {
	content, err := client.Generate(ctx, inference.GenerateRequest{
		Prompt:      inference.TranslationPrompt(params),
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}
	return inference.CleanTranslation(content), nil
}

// Generate implements the inference.Client interface
func (client *Client) Generate(ctx context.Context, params inference.GenerateRequest) (string, error) {
	var result string
	if err := inference.Do(ctx, client.maxRetryAttempts, func() error {
		content, err := client.generateContent(ctx, params, "")
		if err != nil {
			return err
		}
		result = content
		return nil
	}); err != nil {
		return "", err
	}
	return result, nil
}

// ValidateTranslation implements the inference.Client interface
func (client *Client) ValidateTranslation(
	ctx context.Context,
	params inference.ValidateTranslationRequest,
) (inference.ValidateTranslationResponse, error) {
	var result inference.ValidateTranslationResponse
	if err := inference.Do(ctx, client.maxRetryAttempts, func() error {
		response, err := inference.ValidateWithGenerate(func(request inference.GenerateRequest) (string, error) {
			return client.generateContent(ctx, request, "application/json")
		}, params)
		if err != nil {
			return err
		}
		result = response
		return nil
	}); err != nil {
		return inference.ValidateTranslationResponse{}, err
	}
	return result, nil
}

func (client *Client) generateContent(ctx context.Context, params inference.GenerateRequest, mimeType string) (string, error) {
	requestBody := GenerateContentRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: params.Prompt}}},
		},
		GenerationConfig: GenerationConfig{
			Temperature:      params.Temperature,
			ResponseMimeType: mimeType,
		},
	}
	if params.SystemPrompt != "" {
		requestBody.SystemInstruction = &Content{Parts: []Part{{Text: params.SystemPrompt}}}
	}

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetPathParam("model", client.model).
		SetBody(requestBody).
		SetResult(&GenerateContentResponse{}).
		Post("/models/{model}:generateContent")
	if err != nil {
		return "", fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return "", fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*GenerateContentResponse)
	if len(responseBody.Candidates) == 0 || len(responseBody.Candidates[0].Content.Parts) == 0 {
		if responseBody.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini blocked the prompt: %s", responseBody.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("empty response body or candidates: %s", response.String())
	}
	candidate := responseBody.Candidates[0]
	if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
		slog.Default().Warn("gemini response did not finish normally", "finishReason", candidate.FinishReason)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	content := strings.TrimSpace(text.String())
	if content == "" {
		return "", fmt.Errorf("empty response content: %s", response.String())
	}
	slog.Default().Debug("gemini response content", "model", client.model, "length", len(content))
	return content, nil
}
