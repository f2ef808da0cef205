// Package grader decides whether a typed translation is acceptable, escalating
// to a semantic validator only when the lexical check is inconclusive.
package grader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/at-ishikawa/fluentai/internal/inference"
)

var ErrEmptyAnswer = errors.New("please enter an answer")

type Outcome string

const (
	OutcomeAccepted    Outcome = "accepted"
	OutcomeClose       Outcome = "close"
	OutcomeRejected    Outcome = "rejected"
	OutcomeUnvalidated Outcome = "unvalidated"
)

const (
	MethodExact    = "exact"
	MethodSemantic = "semantic"
	MethodFallback = "fallback"

	DefaultAcceptThreshold = 0.90
	DefaultCloseThreshold  = 0.60

	veryCloseThreshold = 0.85
)

// Validator judges meaning rather than spelling.
type Validator interface {
	ValidateTranslation(ctx context.Context, params inference.ValidateTranslationRequest) (inference.ValidateTranslationResponse, error)
}

type Options struct {
	AcceptThreshold float64
	CloseThreshold  float64
	// SemanticValidation enables automatic escalation in the close band.
	SemanticValidation bool
}

func DefaultOptions() Options {
	return Options{
		AcceptThreshold:    DefaultAcceptThreshold,
		CloseThreshold:     DefaultCloseThreshold,
		SemanticValidation: true,
	}
}

type Attempt struct {
	Input      string
	SourceText string
	Reference  string
	// ReferenceOK is false when no provider could translate the source text.
	ReferenceOK    bool
	SourceLanguage string
	TargetLanguage string
}

type Verdict struct {
	Outcome    Outcome `json:"outcome"`
	Similarity float64 `json:"similarity"`
	// Reference is the answer shown to the learner.
	Reference         string `json:"reference,omitempty"`
	Feedback          string `json:"feedback"`
	Method            string `json:"method,omitempty"`
	ReferenceInferior bool   `json:"referenceInferior,omitempty"`
	Confidence        int    `json:"confidence,omitempty"`
	CanEscalate       bool   `json:"canEscalate,omitempty"`
}

func (v Verdict) Correct() bool {
	return v.Outcome == OutcomeAccepted
}

// Scored reports whether the verdict should count towards statistics.
func (v Verdict) Scored() bool {
	return v.Outcome != OutcomeUnvalidated
}

type Grader struct {
	validator Validator
	options   Options
}

// New creates a grader. validator may be nil when no semantic validation is configured.
func New(validator Validator, options Options) *Grader {
	if options.AcceptThreshold <= 0 {
		options.AcceptThreshold = DefaultAcceptThreshold
	}
	if options.CloseThreshold <= 0 || options.CloseThreshold >= options.AcceptThreshold {
		options.CloseThreshold = DefaultCloseThreshold
	}
	return &Grader{validator: validator, options: options}
}

// CanValidateSemantically reports whether manual escalation is possible.
func (g *Grader) CanValidateSemantically() bool {
	return g.validator != nil
}

func (g *Grader) Grade(ctx context.Context, attempt Attempt) (Verdict, error) {
	if strings.TrimSpace(attempt.Input) == "" {
		return Verdict{}, ErrEmptyAnswer
	}
	if !attempt.ReferenceOK || strings.TrimSpace(attempt.Reference) == "" {
		return Verdict{
			Outcome:  OutcomeUnvalidated,
			Feedback: "Unable to validate: no reference translation is available.",
		}, nil
	}

	similarity := Similarity(Normalize(attempt.Input), Normalize(attempt.Reference))
	slog.Default().Debug("graded translation lexically", "similarity", similarity)

	switch {
	case similarity >= g.options.AcceptThreshold:
		return Verdict{
			Outcome:    OutcomeAccepted,
			Similarity: similarity,
			Reference:  attempt.Reference,
			Feedback:   "Perfect!",
			Method:     MethodExact,
		}, nil
	case similarity >= g.options.CloseThreshold:
		if g.options.SemanticValidation && g.validator != nil {
			return g.escalate(ctx, attempt, similarity), nil
		}
		feedback := "Close, but not quite."
		if similarity >= veryCloseThreshold {
			feedback = "Very close!"
		}
		return Verdict{
			Outcome:     OutcomeClose,
			Similarity:  similarity,
			Reference:   attempt.Reference,
			Feedback:    feedback,
			Method:      MethodExact,
			CanEscalate: g.validator != nil,
		}, nil
	}
	return Verdict{
		Outcome:    OutcomeRejected,
		Similarity: similarity,
		Reference:  attempt.Reference,
		Feedback:   "Not quite right.",
		Method:     MethodExact,
	}, nil
}

// Escalate asks the semantic validator regardless of the lexical score.
func (g *Grader) Escalate(ctx context.Context, attempt Attempt) (Verdict, error) {
	if strings.TrimSpace(attempt.Input) == "" {
		return Verdict{}, ErrEmptyAnswer
	}
	if g.validator == nil {
		return Verdict{}, errors.New("semantic validation is not configured")
	}
	if !attempt.ReferenceOK {
		return Verdict{
			Outcome:  OutcomeUnvalidated,
			Feedback: "Unable to validate: no reference translation is available.",
		}, nil
	}
	similarity := Similarity(Normalize(attempt.Input), Normalize(attempt.Reference))
	return g.escalate(ctx, attempt, similarity), nil
}

func (g *Grader) escalate(ctx context.Context, attempt Attempt, similarity float64) Verdict {
	response, err := g.validator.ValidateTranslation(ctx, inference.ValidateTranslationRequest{
		SourceText:     attempt.SourceText,
		StudentAnswer:  attempt.Input,
		Reference:      attempt.Reference,
		SourceLanguage: attempt.SourceLanguage,
		TargetLanguage: attempt.TargetLanguage,
	})
	if err != nil {
		slog.Default().Warn("semantic validation failed", "error", err)
		return Verdict{
			Outcome:     OutcomeClose,
			Similarity:  similarity,
			Reference:   attempt.Reference,
			Feedback:    fmt.Sprintf("Unable to validate. Try: %s", attempt.Reference),
			Method:      MethodFallback,
			CanEscalate: true,
		}
	}

	verdict := Verdict{
		Outcome:           OutcomeRejected,
		Similarity:        similarity,
		Reference:         attempt.Reference,
		Feedback:          response.Feedback,
		Method:            MethodSemantic,
		ReferenceInferior: !response.ReferenceCorrect,
		Confidence:        response.Confidence,
	}
	if response.BestTranslation != "" {
		verdict.Reference = response.BestTranslation
	}
	if response.StudentCorrect {
		verdict.Outcome = OutcomeAccepted
	}
	return verdict
}
