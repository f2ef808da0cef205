package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/at-ishikawa/fluentai/internal/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resty.dev/v3"
)

func textResponse(text string) GenerateContentResponse {
	return GenerateContentResponse{
		Candidates: []Candidate{
			{
				Content:      Content{Role: "model", Parts: []Part{{Text: text}}},
				FinishReason: "STOP",
			},
		},
	}
}

func newTestClient(url string) *Client {
	return &Client{
		httpClient: resty.New().
			SetBaseURL(url).
			SetHeader("x-goog-api-key", "AIzaTestKey"),
		model:            DefaultModel,
		maxRetryAttempts: 1,
	}
}

func TestClient_Translate(t *testing.T) {
	tests := []struct {
		name              string
		mockServerHandler func(t *testing.T, w http.ResponseWriter, r *http.Request)

		want            string
		wantError       bool
		wantErrorString string
	}{
		{
			name: "Success",
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
				assert.Equal(t, "AIzaTestKey", r.Header.Get("x-goog-api-key"))

				var reqBody GenerateContentRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
				require.Len(t, reqBody.Contents, 1)
				assert.Contains(t, reqBody.Contents[0].Parts[0].Text, "Translate this English text to Spanish")
				assert.Nil(t, reqBody.SystemInstruction)

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(textResponse("Buenos días\n"))
			},
			want: "Buenos días",
		},
		{
			name: "Blocked prompt",
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
			},
			wantError:       true,
			wantErrorString: "SAFETY",
		},
		{
			name: "Invalid API key",
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
			},
			wantError:       true,
			wantErrorString: "response error 403",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.mockServerHandler(t, w, r)
			}))
			defer server.Close()

			got, err := newTestClient(server.URL).Translate(context.Background(), inference.TranslateRequest{
				Text:           "Good morning",
				SourceLanguage: "en",
				TargetLanguage: "es",
			})
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrorString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Generate_SystemInstruction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody GenerateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		require.NotNil(t, reqBody.SystemInstruction)
		assert.Equal(t, "You write quizzes.", reqBody.SystemInstruction.Parts[0].Text)
		assert.InDelta(t, 0.7, reqBody.GenerationConfig.Temperature, 1e-6)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GenerateContentResponse{
			Candidates: []Candidate{{
				Content: Content{Parts: []Part{{Text: "[{\"question\":"}, {Text: "\"q\"}]"}}},
			}},
		})
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).Generate(context.Background(), inference.GenerateRequest{
		SystemPrompt: "You write quizzes.",
		Prompt:       "Write one question.",
		Temperature:  0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, `[{"question":"q"}]`, got)
}

func TestClient_ValidateTranslation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody GenerateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "application/json", reqBody.GenerationConfig.ResponseMimeType)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(textResponse(
			`{"studentCorrect":true,"chromeCorrect":true,"bestTranslation":"¿Dónde está la biblioteca?","feedback":"Nice","confidence":88}`,
		))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).ValidateTranslation(context.Background(), inference.ValidateTranslationRequest{
		SourceText:     "Where is the library?",
		StudentAnswer:  "Donde esta la biblioteca",
		Reference:      "¿Dónde está la biblioteca?",
		SourceLanguage: "en",
		TargetLanguage: "es",
	})
	require.NoError(t, err)
	assert.Equal(t, inference.ValidateTranslationResponse{
		StudentCorrect:   true,
		ReferenceCorrect: true,
		BestTranslation:  "¿Dónde está la biblioteca?",
		Feedback:         "Nice",
		Confidence:       88,
	}, got)
}
