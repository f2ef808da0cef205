// Package player abstracts the video element the segment scheduler watches.
package player

import (
	"math"
	"sync"
	"time"
)

// Video is the playback surface: a clock that can be paused and resumed.
type Video interface {
	CurrentTime() float64
	Paused() bool
	AdShowing() bool
	Pause()
	Play()
}

// Locator finds the current video. The video may disappear, e.g. on navigation.
type Locator interface {
	Video() (Video, bool)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func() (Video, bool)

func (f LocatorFunc) Video() (Video, bool) {
	return f()
}

// AdBreak is a span of the media timeline during which an ad is shown.
type AdBreak struct {
	From float64
	To   float64
}

// Simulated is a wall clock driven player used by the terminal UI and tests.
type Simulated struct {
	mu       sync.Mutex
	now      func() time.Time
	position float64
	anchor   time.Time
	rate     float64
	paused   bool
	attached bool
	duration float64
	ads      []AdBreak
}

type SimulatedOption func(*Simulated)

func WithClock(now func() time.Time) SimulatedOption {
	return func(s *Simulated) {
		s.now = now
	}
}

// WithDuration stops the clock at d seconds.
func WithDuration(d float64) SimulatedOption {
	return func(s *Simulated) {
		s.duration = d
	}
}

func WithAdBreaks(ads ...AdBreak) SimulatedOption {
	return func(s *Simulated) {
		s.ads = append(s.ads, ads...)
	}
}

// NewSimulated returns a paused player at position zero.
func NewSimulated(opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		now:      time.Now,
		rate:     1,
		paused:   true,
		attached: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.anchor = s.now()
	return s
}

func (s *Simulated) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTime()
}

func (s *Simulated) currentTime() float64 {
	t := s.position
	if !s.paused {
		t += s.now().Sub(s.anchor).Seconds() * s.rate
	}
	if s.duration > 0 {
		t = math.Min(t, s.duration)
	}
	return t
}

func (s *Simulated) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused || s.ended()
}

func (s *Simulated) ended() bool {
	return s.duration > 0 && s.currentTime() >= s.duration
}

// Ended reports whether playback reached the configured duration.
func (s *Simulated) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended()
}

func (s *Simulated) AdShowing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.currentTime()
	for _, ad := range s.ads {
		if t >= ad.From && t < ad.To {
			return true
		}
	}
	return false
}

func (s *Simulated) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.position = s.currentTime()
	s.paused = true
}

func (s *Simulated) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.anchor = s.now()
	s.paused = false
}

// TogglePlay pauses a playing video and plays a paused one.
func (s *Simulated) TogglePlay() {
	if s.Paused() {
		s.Play()
		return
	}
	s.Pause()
}

// Seek jumps to t seconds, keeping the play state.
func (s *Simulated) Seek(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = math.Max(0, t)
	if s.duration > 0 {
		s.position = math.Min(s.position, s.duration)
	}
	s.anchor = s.now()
}

// SeekBy moves the playhead by delta seconds.
func (s *Simulated) SeekBy(delta float64) {
	s.Seek(s.CurrentTime() + delta)
}

func (s *Simulated) SetRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = s.currentTime()
	s.anchor = s.now()
	if rate > 0 {
		s.rate = rate
	}
}

// Detach makes the player disappear from Video until Attach is called.
func (s *Simulated) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = false
}

func (s *Simulated) Attach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = true
}

// Video implements Locator so the simulated player can be handed to the scheduler directly.
func (s *Simulated) Video() (Video, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return nil, false
	}
	return s, true
}
