// Package session holds the state of one viewing session: the segment
// scheduler, the review under way and the collaborators that grade it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/at-ishikawa/fluentai/internal/config"
	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/grader"
	"github.com/at-ishikawa/fluentai/internal/player"
	"github.com/at-ishikawa/fluentai/internal/scheduler"
	"github.com/at-ishikawa/fluentai/internal/statistics"
	"github.com/at-ishikawa/fluentai/internal/transcript"
	"github.com/at-ishikawa/fluentai/internal/translation"
	"github.com/google/uuid"
)

var (
	ErrNoReview     = errors.New("no segment is under review")
	ErrAlreadySaved = errors.New("flashcard already exists")
	ErrClosed       = errors.New("session is closed")
)

type Settings struct {
	NativeLanguage       string
	TargetLanguage       string
	AutoTranslate        bool
	AutoPlayAfterCorrect bool
	AutoAdvanceDelay     time.Duration
	Scheduler            scheduler.Options
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		NativeLanguage:       cfg.Languages.Native,
		TargetLanguage:       cfg.Languages.Target,
		AutoTranslate:        cfg.Playback.AutoTranslate,
		AutoPlayAfterCorrect: cfg.Playback.AutoPlayAfterCorrect,
		AutoAdvanceDelay:     cfg.Playback.AutoAdvanceDelay,
		Scheduler: scheduler.Options{
			PauseDelay:   cfg.Playback.PauseDelay,
			Slack:        cfg.Playback.TriggerSlack,
			PollInterval: cfg.Playback.PollInterval,
		},
	}
}

// Translator produces the reference translation of a subtitle.
type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) translation.Result
}

// Recorder keeps the running score. *statistics.Tracker implements it.
type Recorder interface {
	RecordAttempt(ctx context.Context, kind string, correct bool) (statistics.Stats, error)
}

// Review is the segment the learner is asked to translate.
type Review struct {
	Index   int
	Segment transcript.Segment
	At      float64

	input    string
	verdict  *grader.Verdict
	recorded bool
}

type Session struct {
	ID string

	settings   Settings
	locator    player.Locator
	translator Translator
	grader     *grader.Grader
	store      flashcard.Store
	recorder   Recorder
	now        func() time.Time

	mu         sync.Mutex
	ctx        context.Context
	scheduler  *scheduler.Scheduler
	forwarding sync.WaitGroup
	current    *Review
	advance    *time.Timer
	autoPause  bool
	closed     bool
	reviews    chan Review
	references *referenceCache
}

type Option func(*Session)

// WithRecorder records every scored review.
func WithRecorder(recorder Recorder) Option {
	return func(s *Session) {
		s.recorder = recorder
	}
}

func WithStore(store flashcard.Store) Option {
	return func(s *Session) {
		s.store = store
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func New(settings Settings, locator player.Locator, translator Translator, g *grader.Grader, options ...Option) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		settings:   settings,
		locator:    locator,
		translator: translator,
		grader:     g,
		now:        time.Now,
		ctx:        context.Background(),
		autoPause:  true,
		reviews:    make(chan Review, 1),
		references: newReferenceCache(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Load extracts the transcript and starts watching the video.
// The previous scheduler, if any, is stopped first. On a source error no scheduler runs.
func (s *Session) Load(ctx context.Context, source transcript.Source) ([]transcript.Segment, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.mu.Unlock()
	s.stop()

	segments, err := source.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("source.Extract() > %w", err)
	}

	options := s.settings.Scheduler
	options.Enabled = s.AutoPauseEnabled
	sched := scheduler.New(segments, s.locator, options)

	// Close may have run while extracting; it owns the reviews channel from then on
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.ctx = ctx
	s.scheduler = sched
	s.references = newReferenceCache()
	events := sched.Start(ctx)
	s.forwarding.Add(1)
	go s.forward(events)
	s.mu.Unlock()

	slog.Default().Info("session loaded transcript", "session", s.ID, "segments", len(segments))
	return sched.Segments(), nil
}

func (s *Session) forward(events <-chan scheduler.Event) {
	defer s.forwarding.Done()
	for event := range events {
		review := Review{Index: event.Index, Segment: event.Segment, At: event.At}
		s.mu.Lock()
		s.stopAdvance()
		s.current = &review
		ctx := s.ctx
		s.mu.Unlock()

		if s.settings.AutoTranslate {
			go s.reference(ctx, event.Segment)
		}
		select {
		case s.reviews <- review:
		default:
			slog.Default().Debug("nobody is listening for reviews", "index", event.Index)
		}
	}
}

// Reviews announces every segment the scheduler paused for.
func (s *Session) Reviews() <-chan Review {
	return s.reviews
}

// Current returns the review under way.
func (s *Session) Current() (Review, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Review{}, false
	}
	return *s.current, true
}

// ToggleAutoPause turns automatic pausing on or off and returns the new value.
func (s *Session) ToggleAutoPause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoPause = !s.autoPause
	return s.autoPause
}

func (s *Session) AutoPauseEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoPause
}

func (s *Session) Settings() Settings {
	return s.settings
}

func (s *Session) stop() {
	s.mu.Lock()
	sched := s.scheduler
	s.scheduler = nil
	s.current = nil
	s.stopAdvance()
	s.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
	s.forwarding.Wait()
}

// stopAdvance must be called with mu held.
func (s *Session) stopAdvance() {
	if s.advance != nil {
		s.advance.Stop()
		s.advance = nil
	}
}

// Close stops the scheduler. The session cannot be loaded again.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.stop()
	close(s.reviews)
	slog.Default().Debug("session closed", "session", s.ID)
	return nil
}
