// Package testutil provides shared test helpers for config files, flashcard decks and transcripts.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/transcript"
)

// FakeGeminiAPIKey passes the key format check.
const FakeGeminiAPIKey = "AIzaFakeKeyForTesting"

// SetupTestConfig writes a config file that keeps every file under tmpDir and
// uses the YAML flashcard store. Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	configContent := fmt.Sprintf(`languages:
  native: en
  target: es
storage:
  driver: yaml
  path: %s
statistics:
  path: %s
openai:
  base_url: http://127.0.0.1:1/v1
`,
		filepath.Join(tmpDir, "flashcards.yml"),
		filepath.Join(tmpDir, "stats.yml"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// SetupTestConfigWithAPIKey adds a Gemini key so that the cloud tier is configured.
func SetupTestConfigWithAPIKey(t *testing.T, tmpDir string) string {
	t.Helper()
	cfgPath := SetupTestConfig(t, tmpDir)

	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	content = append(content, []byte(fmt.Sprintf("gemini:\n  api_key: %s\n  model: gemini-2.5-flash\n", FakeGeminiAPIKey))...)
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))
	return cfgPath
}

// CardOption configures a card created by CreateFlashcardDeck.
type CardOption func(*flashcard.Card)

// WithDueIn moves the next review d into the future.
func WithDueIn(d time.Duration) CardOption {
	return func(card *flashcard.Card) {
		card.NextReviewAt = card.NextReviewAt.Add(d)
	}
}

// CreateFlashcardDeck stores one card per word/translation pair in the YAML deck at path.
// Cards are due immediately unless an option says otherwise.
func CreateFlashcardDeck(t *testing.T, path, language string, pairs map[string]string, opts ...CardOption) []flashcard.Card {
	t.Helper()

	store := flashcard.NewYAMLStore(path)
	now := time.Now().Add(-time.Minute)
	cards := make([]flashcard.Card, 0, len(pairs))
	for word, translation := range pairs {
		card := flashcard.NewCard(word, translation, language, now)
		for _, opt := range opts {
			opt(&card)
		}
		cards = append(cards, card)
	}
	_, err := store.AddAll(t.Context(), cards)
	require.NoError(t, err)
	return cards
}

// WriteTranscript writes segments as a YAML transcript with explicit ends and returns its path.
func WriteTranscript(t *testing.T, dir, name string, segments []transcript.Segment) string {
	t.Helper()

	type line struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
		Text  string `yaml:"text"`
	}
	lines := make([]line, 0, len(segments))
	for _, segment := range segments {
		lines = append(lines, line{
			Start: fmt.Sprintf("%g", segment.Start),
			End:   fmt.Sprintf("%g", segment.End),
			Text:  segment.Text,
		})
	}
	data, err := yaml.Marshal(lines)
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
