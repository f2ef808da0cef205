package transcript

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go"
)

var (
	ErrNoSegmentsFound     = errors.New("no transcript segments found")
	ErrPanelLoadTimeout    = errors.New("transcript panel did not load within expected time")
	ErrCaptionsUnavailable = errors.New("captions are not available for this video")

	errPanelEmpty = errors.New("transcript panel has no lines yet")
)

// IsSourceUnavailable reports whether err means the video has no usable transcript.
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrNoSegmentsFound) ||
		errors.Is(err, ErrPanelLoadTimeout) ||
		errors.Is(err, ErrCaptionsUnavailable)
}

// Source produces the ordered segments of one video.
type Source interface {
	Extract(ctx context.Context) ([]Segment, error)
}

// Static serves segments that are already known.
type Static []Segment

func (s Static) Extract(ctx context.Context) ([]Segment, error) {
	if len(s) == 0 {
		return nil, ErrNoSegmentsFound
	}
	return Sort(s), nil
}

// FileSource reads a caption file, choosing the parser from the extension.
type FileSource struct {
	Path string
}

func (s FileSource) Extract(ctx context.Context) ([]Segment, error) {
	content, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", s.Path, err)
	}

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".vtt", ".srt":
		return ParseVTT(string(content))
	case ".yml", ".yaml":
		return ParseYAML(content)
	default:
		return ParsePanel(string(content))
	}
}

// Panel is a transcript panel that renders caption lines after it is opened.
type Panel interface {
	// Open reveals the panel. It returns false when the video offers no transcript.
	Open(ctx context.Context) (bool, error)
	// Lines returns the lines rendered so far.
	Lines(ctx context.Context) ([]TimedLine, error)
}

const (
	DefaultPanelAttempts = 20
	DefaultPanelInterval = 500 * time.Millisecond
)

// PanelSource opens a panel and waits for its lines to render.
type PanelSource struct {
	panel    Panel
	attempts uint
	interval time.Duration
}

func NewPanelSource(panel Panel) *PanelSource {
	return &PanelSource{
		panel:    panel,
		attempts: DefaultPanelAttempts,
		interval: DefaultPanelInterval,
	}
}

// WithPolling overrides how often and how many times the panel is checked.
func (s *PanelSource) WithPolling(attempts uint, interval time.Duration) *PanelSource {
	s.attempts = attempts
	s.interval = interval
	return s
}

func (s *PanelSource) Extract(ctx context.Context) ([]Segment, error) {
	opened, err := s.panel.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("panel.Open() > %w", err)
	}
	if !opened {
		return nil, ErrCaptionsUnavailable
	}

	var lines []TimedLine
	if err := retry.Do(
		func() error {
			rendered, err := s.panel.Lines(ctx)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("panel.Lines() > %w", err))
			}
			if len(rendered) == 0 {
				return errPanelEmpty
			}
			lines = rendered
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	); err != nil {
		if errors.Is(err, errPanelEmpty) {
			return nil, ErrPanelLoadTimeout
		}
		return nil, err
	}

	return BuildSegments(lines)
}
