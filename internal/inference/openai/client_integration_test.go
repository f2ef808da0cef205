//go:build integration

package openai_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/at-ishikawa/fluentai/internal/inference"
	"github.com/at-ishikawa/fluentai/internal/inference/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClient_Translate_Integration talks to a real OpenAI compatible server.
// Run with: OPENAI_BASE_URL=http://localhost:11434/v1 go test -tags integration ./internal/inference/openai
func TestClient_Translate_Integration(t *testing.T) {
	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		})),
	)

	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		t.Skip("OPENAI_BASE_URL environment variable not set, skipping integration test")
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "llama3.2"
	}

	client := openai.NewClient(baseURL, os.Getenv("OPENAI_API_KEY"), model, inference.DefaultMaxRetryAttempts)
	defer func() {
		_ = client.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	got, err := client.Translate(ctx, inference.TranslateRequest{
		Text:           "Good morning",
		SourceLanguage: "en",
		TargetLanguage: "es",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.NotEqual(t, "Good morning", got)
}
