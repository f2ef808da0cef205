// Package transcript turns caption sources into timed segments.
package transcript

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// MinSegmentDuration is the shortest duration given to a segment whose end is derived from the next start.
	MinSegmentDuration = 2.0

	// Final segments have no successor, so their duration is estimated from the text length.
	minFinalDuration    = 3.0
	maxFinalDuration    = 8.0
	charactersPerSecond = 10.0
)

// Segment is one timed unit of subtitle text. Segments are values and are never mutated once built.
type Segment struct {
	Text  string  `json:"text" yaml:"text"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

func (s Segment) Duration() float64 {
	return s.End - s.Start
}

func (s Segment) Validate() error {
	if strings.TrimSpace(s.Text) == "" {
		return fmt.Errorf("segment at %.2fs has no text", s.Start)
	}
	if s.Start < 0 {
		return fmt.Errorf("segment %q starts before zero: %.2f", s.Text, s.Start)
	}
	if s.End <= s.Start {
		return fmt.Errorf("segment %q ends at %.2f, not after its start %.2f", s.Text, s.End, s.Start)
	}
	return nil
}

// TimedLine is a caption line that only carries its start time.
type TimedLine struct {
	Start float64 `json:"start" yaml:"start"`
	Text  string  `json:"text" yaml:"text"`
}

// BuildSegments derives segment ends from the following start times.
// Each segment lasts until the next one starts, but never less than MinSegmentDuration.
// The last segment lasts len(text)/10 seconds, clamped to [3, 8].
func BuildSegments(lines []TimedLine) ([]Segment, error) {
	cleaned := make([]TimedLine, 0, len(lines))
	for _, line := range lines {
		text := CleanText(line.Text)
		if text == "" {
			continue
		}
		cleaned = append(cleaned, TimedLine{Start: math.Max(line.Start, 0), Text: text})
	}
	if len(cleaned) == 0 {
		return nil, ErrNoSegmentsFound
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].Start < cleaned[j].Start
	})

	segments := make([]Segment, 0, len(cleaned))
	for i, line := range cleaned {
		var duration float64
		if i+1 < len(cleaned) {
			duration = math.Max(MinSegmentDuration, cleaned[i+1].Start-line.Start)
		} else {
			estimated := float64(utf8.RuneCountInString(line.Text)) / charactersPerSecond
			duration = math.Min(maxFinalDuration, math.Max(minFinalDuration, estimated))
		}
		segments = append(segments, Segment{
			Text:  line.Text,
			Start: line.Start,
			End:   line.Start + duration,
		})
	}
	return segments, nil
}

// Sort orders segments by start time, keeping the relative order of equal starts.
func Sort(segments []Segment) []Segment {
	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	return sorted
}

var htmlEntities = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&#39;", "'",
	"&quot;", `"`,
)

// CleanText decodes common entities and collapses whitespace.
func CleanText(text string) string {
	return strings.Join(strings.Fields(htmlEntities.Replace(text)), " ")
}

// FullText joins the text of every segment.
func FullText(segments []Segment) string {
	texts := make([]string, 0, len(segments))
	for _, s := range segments {
		texts = append(texts, s.Text)
	}
	return strings.Join(texts, " ")
}
