package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/at-ishikawa/fluentai/internal/inference"
	"resty.dev/v3"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// Client talks to an OpenAI compatible chat completions API. Pointed at a
// local model server it serves as the on-device model.
type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
}

func NewClient(baseURL, apiKey, model string, retryAttempts uint) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
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

// GetModel returns the model name configured for this client
func (client Client) GetModel() string {
	return client.model
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

type Model struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
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
		content, err := client.chatCompletion(ctx, params)
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
			return client.chatCompletion(ctx, request)
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

// ListModels returns the ids of the models the server can serve right away.
func (client *Client) ListModels(ctx context.Context) ([]string, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetResult(&ModelList{}).
		Get("/models")
	if err != nil {
		return nil, fmt.Errorf("httpClient.Get > %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	list := response.Result().(*ModelList)
	ids := make([]string, 0, len(list.Data))
	for _, model := range list.Data {
		ids = append(ids, model.ID)
	}
	return ids, nil
}

func (client *Client) chatCompletion(ctx context.Context, params inference.GenerateRequest) (string, error) {
	var messages []Message
	if params.SystemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: params.SystemPrompt})
	}
	messages = append(messages, Message{Role: RoleUser, Content: params.Prompt})

	requestBody := ChatCompletionRequest{
		Model:       client.model,
		Temperature: params.Temperature,
		Messages:    messages,
	}

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return "", fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return "", fmt.Errorf("empty response body or choices: %s", response.String())
	}

	content := responseBody.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty response content: %s", response.String())
	}
	slog.Default().Debug("openai response content",
		"model", client.model,
		"usage", responseBody.Usage,
	)
	return content, nil
}
