// Package translation tries translation providers in order until one gives a usable answer.
package translation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
)

var (
	// ErrEcho is reported when a provider returns its input unchanged.
	ErrEcho = errors.New("translation echoed the input")
	// ErrExhausted is reported when every provider failed.
	ErrExhausted = errors.New("all translation providers failed")
)

const (
	SourceFailed     = "failed"
	FailedConfidence = 20
)

type Request struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
}

// Provider is one translation tier.
type Provider interface {
	Name() string
	Confidence() int
	// Available is checked before every attempt; unavailable providers are skipped.
	Available(ctx context.Context) bool
	Attempt(ctx context.Context, request Request) (string, error)
}

type Result struct {
	Translation string `json:"translation"`
	Confidence  int    `json:"confidence"`
	Source      string `json:"source"`
	Failed      bool   `json:"failed,omitempty"`
}

// Err returns ErrExhausted for a failed result.
func (r Result) Err() error {
	if r.Failed {
		return ErrExhausted
	}
	return nil
}

type Chain struct {
	providers []Provider
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// NewWordChain orders the tiers for single words: translator, writer, cloud.
func NewWordChain(translator, writer, cloud Provider) *Chain {
	return NewChain(translator, writer, cloud)
}

// NewSentenceChain orders the tiers for subtitle sentences: translator, cloud.
func NewSentenceChain(translator, cloud Provider) *Chain {
	return NewChain(translator, cloud)
}

func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, provider := range c.providers {
		names = append(names, provider.Name())
	}
	return names
}

// Translate never fails outright: when no provider succeeds the input text is
// returned with the "failed" source.
func (c *Chain) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) Result {
	request := Request{Text: text, SourceLanguage: sourceLanguage, TargetLanguage: targetLanguage}
	for _, provider := range c.providers {
		if provider == nil || !provider.Available(ctx) {
			continue
		}
		translation, err := provider.Attempt(ctx, request)
		if err == nil {
			translation = strings.TrimSpace(translation)
			if translation == "" {
				err = errors.New("empty translation")
			} else if IsEcho(text, translation) {
				err = ErrEcho
			}
		}
		if err != nil {
			slog.Default().Warn("translation provider failed",
				"provider", provider.Name(),
				"text", text,
				"error", err,
			)
			continue
		}
		return Result{
			Translation: translation,
			Confidence:  provider.Confidence(),
			Source:      provider.Name(),
		}
	}

	slog.Default().Error("all translation providers failed",
		"text", text,
		"source", sourceLanguage,
		"target", targetLanguage,
	)
	return Result{
		Translation: text,
		Confidence:  FailedConfidence,
		Source:      SourceFailed,
		Failed:      true,
	}
}

// IsEcho compares case-folded, whitespace-collapsed forms.
func IsEcho(input, output string) bool {
	fold := cases.Fold()
	normalize := func(s string) string {
		return strings.Join(strings.Fields(fold.String(s)), " ")
	}
	return normalize(input) == normalize(output)
}
