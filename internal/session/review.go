package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/grader"
	"github.com/at-ishikawa/fluentai/internal/statistics"
	"github.com/at-ishikawa/fluentai/internal/transcript"
	"github.com/at-ishikawa/fluentai/internal/translation"
)

// referenceCache shares in-flight translations per segment start and keeps the successful ones.
type referenceCache struct {
	group   singleflight.Group
	mu      sync.Mutex
	results map[float64]translation.Result
}

func newReferenceCache() *referenceCache {
	return &referenceCache{results: make(map[float64]translation.Result)}
}

func (c *referenceCache) get(start float64) (translation.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result, ok := c.results[start]
	return result, ok
}

func (c *referenceCache) put(start float64, result translation.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[start] = result
}

// Reference returns the translation of the segment the learner is expected to produce.
func (s *Session) Reference(ctx context.Context) (translation.Result, error) {
	review, ok := s.Current()
	if !ok {
		return translation.Result{}, ErrNoReview
	}
	return s.reference(ctx, review.Segment), nil
}

// reference translates the segment from the language being learned into the
// learner's language. Concurrent callers share the in-flight request; a failed
// result is not kept so the next call tries again.
func (s *Session) reference(ctx context.Context, segment transcript.Segment) translation.Result {
	s.mu.Lock()
	cache := s.references
	s.mu.Unlock()

	if result, ok := cache.get(segment.Start); ok {
		return result
	}
	key := strconv.FormatFloat(segment.Start, 'f', -1, 64)
	results := cache.group.DoChan(key, func() (any, error) {
		if result, ok := cache.get(segment.Start); ok {
			return result, nil
		}
		result := s.translator.Translate(ctx, segment.Text, s.settings.TargetLanguage, s.settings.NativeLanguage)
		if !result.Failed {
			cache.put(segment.Start, result)
		}
		return result, nil
	})
	select {
	case shared := <-results:
		return shared.Val.(translation.Result)
	case <-ctx.Done():
		return translation.Result{Translation: segment.Text, Confidence: translation.FailedConfidence, Source: translation.SourceFailed, Failed: true}
	}
}

// Submit grades the learner's translation of the current segment.
func (s *Session) Submit(ctx context.Context, input string) (grader.Verdict, error) {
	review, ok := s.Current()
	if !ok {
		return grader.Verdict{}, ErrNoReview
	}
	if strings.TrimSpace(input) == "" {
		return grader.Verdict{}, grader.ErrEmptyAnswer
	}

	attempt := s.attempt(ctx, review.Segment, input)
	verdict, err := s.grader.Grade(ctx, attempt)
	if err != nil {
		return grader.Verdict{}, fmt.Errorf("grader.Grade() > %w", err)
	}
	s.conclude(ctx, review, input, verdict)
	return verdict, nil
}

// Escalate asks the semantic validator about the last submitted answer.
func (s *Session) Escalate(ctx context.Context) (grader.Verdict, error) {
	review, ok := s.Current()
	if !ok {
		return grader.Verdict{}, ErrNoReview
	}
	if review.input == "" {
		return grader.Verdict{}, grader.ErrEmptyAnswer
	}

	attempt := s.attempt(ctx, review.Segment, review.input)
	verdict, err := s.grader.Escalate(ctx, attempt)
	if err != nil {
		return grader.Verdict{}, fmt.Errorf("grader.Escalate() > %w", err)
	}
	s.conclude(ctx, review, review.input, verdict)
	return verdict, nil
}

func (s *Session) attempt(ctx context.Context, segment transcript.Segment, input string) grader.Attempt {
	reference := s.reference(ctx, segment)
	return grader.Attempt{
		Input:          input,
		SourceText:     segment.Text,
		Reference:      reference.Translation,
		ReferenceOK:    !reference.Failed,
		SourceLanguage: s.settings.TargetLanguage,
		TargetLanguage: s.settings.NativeLanguage,
	}
}

// conclude stores the verdict on the review, records the first scored verdict
// and schedules the auto-advance on success.
func (s *Session) conclude(ctx context.Context, review Review, input string, verdict grader.Verdict) {
	s.mu.Lock()
	current := s.current
	if current == nil || current.Segment.Start != review.Segment.Start {
		// The review ended while grading
		s.mu.Unlock()
		return
	}
	current.input = input
	current.verdict = &verdict
	record := verdict.Scored() && !current.recorded
	if record {
		current.recorded = true
	}
	if verdict.Correct() && s.settings.AutoPlayAfterCorrect {
		s.stopAdvance()
		start := review.Segment.Start
		s.advance = time.AfterFunc(s.settings.AutoAdvanceDelay, func() {
			s.advanceFrom(start)
		})
	}
	s.mu.Unlock()

	if record && s.recorder != nil {
		if _, err := s.recorder.RecordAttempt(ctx, statistics.KindSubtitle, verdict.Correct()); err != nil {
			slog.Default().Warn("failed to record the attempt", "error", err)
		}
	}
}

// advanceFrom resumes playback if start is still the segment under review.
func (s *Session) advanceFrom(start float64) {
	s.mu.Lock()
	if s.current == nil || s.current.Segment.Start != start {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.Continue()
}

// Continue ends the review and resumes playback.
func (s *Session) Continue() {
	s.mu.Lock()
	sched := s.scheduler
	s.current = nil
	s.stopAdvance()
	s.mu.Unlock()

	if sched != nil {
		sched.Resume()
	}
}

// Skip abandons the review without scoring it.
func (s *Session) Skip() error {
	review, ok := s.Current()
	if !ok {
		return ErrNoReview
	}
	slog.Default().Debug("review skipped", "index", review.Index)
	s.Continue()
	return nil
}

// SaveCard stores the current subtitle and its reference translation as a flashcard.
func (s *Session) SaveCard(ctx context.Context) (flashcard.Card, error) {
	if s.store == nil {
		return flashcard.Card{}, fmt.Errorf("no flashcard store configured")
	}
	review, ok := s.Current()
	if !ok {
		return flashcard.Card{}, ErrNoReview
	}
	reference := s.reference(ctx, review.Segment)
	if reference.Failed {
		return flashcard.Card{}, translation.ErrExhausted
	}
	meaning := reference.Translation
	if review.verdict != nil && review.verdict.Reference != "" {
		meaning = review.verdict.Reference
	}

	exists, err := s.store.Exists(ctx, review.Segment.Text, s.settings.TargetLanguage)
	if err != nil {
		return flashcard.Card{}, fmt.Errorf("store.Exists() > %w", err)
	}
	if exists {
		return flashcard.Card{}, ErrAlreadySaved
	}

	card := flashcard.NewCard(review.Segment.Text, meaning, s.settings.TargetLanguage, s.now())
	card.Context = review.Segment.Text
	card.Confidence = reference.Confidence
	card.Source = flashcard.SourceSubtitle
	if _, err := s.store.Add(ctx, &card); err != nil {
		return flashcard.Card{}, fmt.Errorf("store.Add() > %w", err)
	}
	return card, nil
}
