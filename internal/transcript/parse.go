package transcript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	cueTimingRe      = regexp.MustCompile(`((?:\d+:)?\d{1,2}:\d{2}(?:[.,]\d{1,3})?)\s*-->\s*((?:\d+:)?\d{1,2}:\d{2}(?:[.,]\d{1,3})?)`)
	cueTagRe         = regexp.MustCompile(`<[^>]+>`)
	panelTimestampRe = regexp.MustCompile(`^\d{1,2}(?::\d{2}){1,2}$`)
)

// ParseVTT parses WebVTT or SRT cues. Cue ends are taken from the file; a cue whose end
// is not after its start is stretched to MinSegmentDuration.
func ParseVTT(content string) ([]Segment, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var segments []Segment
	var current *Segment
	flush := func() {
		if current == nil {
			return
		}
		current.Text = CleanText(current.Text)
		if current.Text != "" {
			if current.End <= current.Start {
				current.End = current.Start + MinSegmentDuration
			}
			segments = append(segments, *current)
		}
		current = nil
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "WEBVTT") {
			flush()
			continue
		}
		if strings.HasPrefix(line, "NOTE") && current == nil {
			continue
		}

		if matches := cueTimingRe.FindStringSubmatch(line); len(matches) == 3 {
			flush()
			start, err := ParseTimestamp(matches[1])
			if err != nil {
				return nil, fmt.Errorf("ParseTimestamp(%s) > %w", matches[1], err)
			}
			end, err := ParseTimestamp(matches[2])
			if err != nil {
				return nil, fmt.Errorf("ParseTimestamp(%s) > %w", matches[2], err)
			}
			current = &Segment{Start: start, End: end}
			continue
		}

		// Cue identifiers and SRT counters precede the timing line
		if current == nil {
			continue
		}
		current.Text += " " + cueTagRe.ReplaceAllString(line, "")
	}
	flush()

	if len(segments) == 0 {
		return nil, ErrNoSegmentsFound
	}
	return Sort(segments), nil
}

// ParsePanel parses text copied from a transcript panel, where a timestamp line
// such as "0:02" or "1:02:03" is followed by the caption text.
func ParsePanel(content string) ([]Segment, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var timed []TimedLine
	var current *TimedLine
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if panelTimestampRe.MatchString(line) {
			if current != nil {
				timed = append(timed, *current)
			}
			start, err := ParseTimestamp(line)
			if err != nil {
				return nil, fmt.Errorf("ParseTimestamp(%s) > %w", line, err)
			}
			current = &TimedLine{Start: start}
			continue
		}
		if current == nil {
			continue
		}
		current.Text += " " + line
	}
	if current != nil {
		timed = append(timed, *current)
	}
	return BuildSegments(timed)
}

type yamlLine struct {
	Start string  `yaml:"start"`
	End   *string `yaml:"end"`
	Text  string  `yaml:"text"`
}

// ParseYAML reads a list of {start, text} entries; start is either seconds or a timestamp.
// When every entry has an end the ends are used as is.
func ParseYAML(data []byte) ([]Segment, error) {
	var entries []yamlLine
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal() > %w", err)
	}

	explicitEnds := len(entries) > 0
	timed := make([]TimedLine, 0, len(entries))
	segments := make([]Segment, 0, len(entries))
	for _, entry := range entries {
		start, err := parseSeconds(entry.Start)
		if err != nil {
			return nil, err
		}
		timed = append(timed, TimedLine{Start: start, Text: entry.Text})
		if entry.End == nil {
			explicitEnds = false
			continue
		}
		end, err := parseSeconds(*entry.End)
		if err != nil {
			return nil, err
		}
		segments = append(segments, Segment{Text: CleanText(entry.Text), Start: start, End: end})
	}

	if !explicitEnds {
		return BuildSegments(timed)
	}
	for _, s := range segments {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return Sort(segments), nil
}

func parseSeconds(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if v, err := strconv.ParseFloat(value, 64); err == nil {
		return v, nil
	}
	return ParseTimestamp(value)
}
