package vocabulary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/at-ishikawa/fluentai/internal/capability"
	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/inference"
	"github.com/at-ishikawa/fluentai/internal/language"
	"github.com/at-ishikawa/fluentai/internal/translation"
)

const (
	DefaultMinConfidence = 70
	maxDescriptionLength = 200
)

// Describer writes a one sentence explanation of a word.
type Describer interface {
	Describe(ctx context.Context, card flashcard.Card) (string, error)
}

// Enricher translates candidates and turns them into cards.
type Enricher struct {
	chain         *translation.Chain
	readiness     *translation.Readiness
	describers    []Describer
	minConfidence int
}

// NewEnricher builds an Enricher. readiness may be nil; describers are tried in order.
func NewEnricher(chain *translation.Chain, readiness *translation.Readiness, minConfidence int, describers ...Describer) *Enricher {
	return &Enricher{
		chain:         chain,
		readiness:     readiness,
		describers:    describers,
		minConfidence: minConfidence,
	}
}

// Build translates candidates from the target language into the native one
// and keeps the translations at or above the minimum confidence.
func (e *Enricher) Build(
	ctx context.Context,
	candidates []Candidate,
	targetLanguage, nativeLanguage string,
	now time.Time,
	onProgress func(done, total int),
) []flashcard.Card {
	words := make([]string, len(candidates))
	contexts := make(map[string]string, len(candidates))
	for i, candidate := range candidates {
		words[i] = candidate.Word
		contexts[candidate.Word] = candidate.Context
	}

	translated := e.chain.TranslateBatch(ctx, e.readiness, words, targetLanguage, nativeLanguage, onProgress)
	cards := make([]flashcard.Card, 0, len(translated))
	for _, t := range translated {
		if t.Result.Confidence < e.minConfidence {
			slog.Default().Debug("dropping low confidence translation",
				"word", t.Word,
				"confidence", t.Result.Confidence,
			)
			continue
		}
		card := flashcard.NewCard(t.Word, t.Result.Translation, targetLanguage, now)
		card.Confidence = t.Result.Confidence
		card.Source = t.Result.Source
		card.Context = contexts[t.Word]
		cards = append(cards, card)
	}
	return cards
}

// Describe fills card.Description with the first describer that answers,
// or with a template sentence.
func (e *Enricher) Describe(ctx context.Context, card *flashcard.Card) {
	for _, describer := range e.describers {
		description, err := describer.Describe(ctx, *card)
		if err != nil {
			slog.Default().Warn("failed to describe a word", "word", card.Word, "error", err)
			continue
		}
		if description = truncate(strings.TrimSpace(description)); description != "" {
			card.Description = description
			return
		}
	}
	card.Description = fmt.Sprintf("%q means %q in %s.", card.Word, card.Translation, language.Name(card.Language))
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxDescriptionLength {
		return text
	}
	return string(runes[:maxDescriptionLength])
}

func descriptionPrompt(card flashcard.Card) string {
	return fmt.Sprintf("Explain the %s word %q (meaning: %s) in one simple sentence. Include when or how it is used.",
		language.Name(card.Language), card.Word, card.Translation)
}

// WriterDescriber uses the on-device writer behind the bridge.
type WriterDescriber struct {
	requester    capability.Requester
	capabilities translation.Capabilities
}

func NewWriterDescriber(requester capability.Requester, capabilities translation.Capabilities) *WriterDescriber {
	return &WriterDescriber{requester: requester, capabilities: capabilities}
}

func (d *WriterDescriber) Describe(ctx context.Context, card flashcard.Card) (string, error) {
	if !d.capabilities.Descriptor(ctx).Writer {
		return "", fmt.Errorf("writer not available")
	}
	return translation.Generate(ctx, d.requester, descriptionPrompt(card))
}

// CloudDescriber asks a remote model.
type CloudDescriber struct {
	client inference.Client
}

func NewCloudDescriber(client inference.Client) *CloudDescriber {
	return &CloudDescriber{client: client}
}

func (d *CloudDescriber) Describe(ctx context.Context, card flashcard.Card) (string, error) {
	content, err := d.client.Generate(ctx, inference.GenerateRequest{
		Prompt:       descriptionPrompt(card),
		SystemPrompt: "You explain vocabulary to language learners.",
		Temperature:  0.3,
	})
	if err != nil {
		return "", fmt.Errorf("client.Generate() > %w", err)
	}
	return content, nil
}
