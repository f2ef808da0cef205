package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/at-ishikawa/fluentai/internal/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resty.dev/v3"
)

func chatResponse(content string) ChatCompletionResponse {
	return ChatCompletionResponse{
		ID:      "chatcmpl-123",
		Object:  "chat.completion",
		Created: 1677652288,
		Model:   "llama3.2",
		Choices: []Choice{
			{
				Index:        0,
				Message:      ChoiceMessage{Role: RoleAssistant, Content: content},
				FinishReason: "stop",
			},
		},
	}
}

func newTestClient(url string) *Client {
	return &Client{
		httpClient:       resty.New().SetBaseURL(url),
		model:            "llama3.2",
		maxRetryAttempts: 1,
	}
}

func TestClient_Translate(t *testing.T) {
	tests := []struct {
		name              string
		request           inference.TranslateRequest
		mockServerHandler func(t *testing.T, w http.ResponseWriter, r *http.Request)

		want            string
		wantError       bool
		wantErrorString string
	}{
		{
			name:    "Success strips quotes and trailing period",
			request: inference.TranslateRequest{Text: "Where is the library?", SourceLanguage: "en", TargetLanguage: "es"},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var reqBody ChatCompletionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
				assert.Equal(t, "llama3.2", reqBody.Model)
				require.Len(t, reqBody.Messages, 1)
				assert.Equal(t, RoleUser, reqBody.Messages[0].Role)
				assert.Contains(t, reqBody.Messages[0].Content, "English text to Spanish")
				assert.Contains(t, reqBody.Messages[0].Content, `"Where is the library?"`)

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(chatResponse(`"¿Dónde está la biblioteca?".`))
			},
			want: "¿Dónde está la biblioteca?",
		},
		{
			name:    "HTTP 400 error is not retried",
			request: inference.TranslateRequest{Text: "hello", SourceLanguage: "en", TargetLanguage: "es"},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error": {"message": "bad request"}}`))
			},
			wantError:       true,
			wantErrorString: "response error 400",
		},
		{
			name:    "Empty choices",
			request: inference.TranslateRequest{Text: "hello", SourceLanguage: "en", TargetLanguage: "es"},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(ChatCompletionResponse{ID: "chatcmpl-456"})
			},
			wantError:       true,
			wantErrorString: "empty response body or choices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.mockServerHandler(t, w, r)
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			got, gotErr := client.Translate(context.Background(), tt.request)
			if tt.wantError {
				require.Error(t, gotErr)
				if tt.wantErrorString != "" {
					assert.Contains(t, gotErr.Error(), tt.wantErrorString)
				}
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Generate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var reqBody ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		require.Len(t, reqBody.Messages, 2)
		assert.Equal(t, RoleSystem, reqBody.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse("a sentence"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	got, err := client.Generate(context.Background(), inference.GenerateRequest{
		SystemPrompt: "You are a tutor.",
		Prompt:       "Explain.",
	})
	require.NoError(t, err)
	assert.Equal(t, "a sentence", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ValidateTranslation(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		want      inference.ValidateTranslationResponse
		wantError bool
	}{
		{
			name: "Fenced JSON",
			content: "```json\n" + `{"studentCorrect": true, "chromeCorrect": false, "bestTranslation": "¿Dónde queda la biblioteca?",
				"feedback": "Great!", "confidence": 92}` + "\n```",
			want: inference.ValidateTranslationResponse{
				StudentCorrect:   true,
				ReferenceCorrect: false,
				BestTranslation:  "¿Dónde queda la biblioteca?",
				Feedback:         "Great!",
				Confidence:       92,
			},
		},
		{
			name:      "Invalid JSON after retries",
			content:   "I think the student is right",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var reqBody ChatCompletionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
				assert.Contains(t, reqBody.Messages[0].Content, `STUDENT ANSWER (Spanish): "¿Dónde queda la biblioteca?"`)

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(chatResponse(tt.content))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			got, err := client.ValidateTranslation(context.Background(), inference.ValidateTranslationRequest{
				SourceText:     "Where is the library?",
				StudentAnswer:  "¿Dónde queda la biblioteca?",
				Reference:      "¿Dónde está la biblioteca?",
				SourceLanguage: "en",
				TargetLanguage: "es",
			})
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "json.Unmarshal")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"llama3.2"},{"id":"qwen2.5"}]}`))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.2", "qwen2.5"}, got)
}
