// Package scheduler pauses playback shortly after each subtitle segment ends.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/at-ishikawa/fluentai/internal/player"
	"github.com/at-ishikawa/fluentai/internal/transcript"
)

type State int

const (
	StateIdle State = iota
	StatePolling
	StateTriggered
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateTriggered:
		return "triggered"
	}
	return "unknown"
}

const (
	DefaultPauseDelay   = 1.0
	DefaultSlack        = 0.5
	DefaultPollInterval = 300 * time.Millisecond
)

type Options struct {
	// PauseDelay is how many seconds after a segment's end the video is paused.
	PauseDelay float64
	// Slack is the width of the trigger window. It must cover at least one poll interval.
	Slack        float64
	PollInterval time.Duration
	// Enabled is consulted on every tick; nil means always enabled.
	Enabled func() bool
}

func DefaultOptions() Options {
	return Options{
		PauseDelay:   DefaultPauseDelay,
		Slack:        DefaultSlack,
		PollInterval: DefaultPollInterval,
	}
}

// Event announces that playback was paused for a segment review.
type Event struct {
	Index   int
	Segment transcript.Segment
	// At is the playback time at which the trigger fired.
	At float64
}

// Scheduler tracks processed segments and decides when to pause.
// Processed segments are keyed by their start time.
type Scheduler struct {
	mu        sync.Mutex
	segments  []transcript.Segment
	locator   player.Locator
	options   Options
	state     State
	processed map[float64]struct{}
	last      float64
	hasLast   bool
	current   *Event

	cancel context.CancelFunc
	done   chan struct{}
}

func New(segments []transcript.Segment, locator player.Locator, options Options) *Scheduler {
	if options.PollInterval <= 0 {
		options.PollInterval = DefaultPollInterval
	}
	if options.Slack <= 0 {
		options.Slack = options.PollInterval.Seconds()
	}
	return &Scheduler{
		segments:  transcript.Sort(segments),
		locator:   locator,
		options:   options,
		state:     StateIdle,
		processed: make(map[float64]struct{}),
	}
}

// Tick runs one poll. It returns the triggered event, if any.
func (s *Scheduler) Tick() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.options.Enabled != nil && !s.options.Enabled() {
		return Event{}, false
	}
	video, ok := s.locator.Video()
	if !ok {
		return Event{}, false
	}
	if video.AdShowing() {
		return Event{}, false
	}

	t := video.CurrentTime()
	s.forgetAfterSeek(t)

	switch s.state {
	case StateIdle:
		s.state = StatePolling
	case StateTriggered:
		if video.Paused() {
			return Event{}, false
		}
		// Playback resumed without finishing the review
		slog.Default().Debug("review abandoned by resuming playback", "at", t)
		s.state = StatePolling
		s.current = nil
	}
	if video.Paused() {
		return Event{}, false
	}

	index := s.due(t)
	if index < 0 {
		return Event{}, false
	}
	segment := s.segments[index]
	s.processed[segment.Start] = struct{}{}
	s.last, s.hasLast = segment.Start, true

	video.Pause()
	s.state = StateTriggered
	event := Event{Index: index, Segment: segment, At: t}
	s.current = &event
	slog.Default().Info("paused for segment review",
		"index", index,
		"start", segment.Start,
		"end", segment.End,
		"at", t,
	)
	return event, true
}

// forgetAfterSeek treats a playhead before the last processed start as a backward seek
// and makes every segment starting at or after t eligible again.
func (s *Scheduler) forgetAfterSeek(t float64) {
	if !s.hasLast || t >= s.last {
		return
	}
	s.hasLast = false
	for start := range s.processed {
		if start >= t {
			delete(s.processed, start)
			continue
		}
		if !s.hasLast || start > s.last {
			s.last, s.hasLast = start, true
		}
	}
	slog.Default().Debug("backward seek detected", "to", t, "remaining", len(s.processed))
}

// due returns the first unprocessed segment whose trigger window contains t.
func (s *Scheduler) due(t float64) int {
	for i, segment := range s.segments {
		if _, ok := s.processed[segment.Start]; ok {
			continue
		}
		triggerAt := segment.End + s.options.PauseDelay
		if t >= triggerAt && t <= triggerAt+s.options.Slack {
			return i
		}
	}
	return -1
}

// Resume ends the current review and plays the video again.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateTriggered {
		s.state = StatePolling
	}
	s.current = nil
	if video, ok := s.locator.Video(); ok {
		video.Play()
	}
}

// Start polls in the background until ctx is done or Stop is called.
// A running loop is stopped before the new one starts.
func (s *Scheduler) Start(ctx context.Context) <-chan Event {
	s.Stop()

	loopCtx, cancel := context.WithCancel(ctx)
	events := make(chan Event, 1)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.state = StatePolling
	interval := s.options.PollInterval
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer close(events)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				event, ok := s.Tick()
				if !ok {
					continue
				}
				select {
				case events <- event:
				case <-loopCtx.Done():
					return
				}
			}
		}
	}()
	return events
}

// Stop tears the polling loop down and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.state = StateIdle
	s.current = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the segment under review.
func (s *Scheduler) Current() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Event{}, false
	}
	return *s.current, true
}

func (s *Scheduler) Processed(start float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[start]
	return ok
}

func (s *Scheduler) Segments() []transcript.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	segments := make([]transcript.Segment, len(s.segments))
	copy(segments, s.segments)
	return segments
}
