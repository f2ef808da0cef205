package transcript

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSegments(t *testing.T) {
	tests := []struct {
		name    string
		lines   []TimedLine
		want    []Segment
		wantErr error
	}{
		{
			name: "end is the next start",
			lines: []TimedLine{
				{Start: 0, Text: "Hello there"},
				{Start: 2.5, Text: "How are you"},
				{Start: 6, Text: "Fine"},
			},
			want: []Segment{
				{Text: "Hello there", Start: 0, End: 2.5},
				{Text: "How are you", Start: 2.5, End: 6},
				{Text: "Fine", Start: 6, End: 9},
			},
		},
		{
			name: "short gaps get the minimum duration",
			lines: []TimedLine{
				{Start: 1, Text: "One"},
				{Start: 1.5, Text: "Two"},
			},
			want: []Segment{
				{Text: "One", Start: 1, End: 3},
				{Text: "Two", Start: 1.5, End: 4.5},
			},
		},
		{
			name: "long final segment is capped",
			lines: []TimedLine{
				{Start: 10, Text: "This is a long final line that goes on and on for well over eighty characters in total length"},
			},
			want: []Segment{
				{Text: "This is a long final line that goes on and on for well over eighty characters in total length", Start: 10, End: 18},
			},
		},
		{
			name: "unsorted input and blank lines",
			lines: []TimedLine{
				{Start: 5, Text: "Later&nbsp;line"},
				{Start: 3, Text: "   "},
				{Start: 0, Text: "  Earlier\n line "},
			},
			want: []Segment{
				{Text: "Earlier line", Start: 0, End: 5},
				{Text: "Later line", Start: 5, End: 8},
			},
		},
		{
			name:    "nothing usable",
			lines:   []TimedLine{{Start: 0, Text: " "}},
			wantErr: ErrNoSegmentsFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildSegments(tt.lines)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			for _, s := range got {
				assert.NoError(t, s.Validate())
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "0:02", want: 2},
		{in: "1:05", want: 65},
		{in: "1:02:03", want: 3723},
		{in: "00:00:01.500", want: 1.5},
		{in: "00:01:02,250", want: 62.25},
		{in: "12", wantErr: true},
		{in: "1:75", wantErr: true},
		{in: "a:bc", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:01:02.250", FormatTimestamp(62.25))
	assert.Equal(t, "01:00:00.000", FormatTimestamp(3600))
	assert.Equal(t, "1:05", FormatClock(65.9))
	assert.Equal(t, "1:02:03", FormatClock(3723))
}

func TestParseVTT(t *testing.T) {
	content := "WEBVTT\r\n\r\nNOTE generated\r\n\r\n1\r\n00:00:00.000 --> 00:00:02.500\r\n<c>Hola</c>, amigo\r\n\r\n2\r\n00:00:02.500 --> 00:00:05.100 align:start\r\n¿Dónde está\r\nla biblioteca?\r\n\r\n00:00:07,000 --> 00:00:07,000\r\nSame start and end\r\n"

	got, err := ParseVTT(content)
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		{Text: "Hola, amigo", Start: 0, End: 2.5},
		{Text: "¿Dónde está la biblioteca?", Start: 2.5, End: 5.1},
		{Text: "Same start and end", Start: 7, End: 9},
	}, got)

	_, err = ParseVTT("WEBVTT\n\n")
	assert.ErrorIs(t, err, ErrNoSegmentsFound)
}

func TestParsePanel(t *testing.T) {
	content := `0:00
Hello everyone
0:03
welcome back
to the channel
1:00:00
Goodbye
`
	got, err := ParsePanel(content)
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		{Text: "Hello everyone", Start: 0, End: 3},
		{Text: "welcome back to the channel", Start: 3, End: 3600},
		{Text: "Goodbye", Start: 3600, End: 3603},
	}, got)
}

func TestParseYAML(t *testing.T) {
	t.Run("start only", func(t *testing.T) {
		got, err := ParseYAML([]byte(`- start: 0
  text: Hola
- start: "0:04"
  text: Adiós
`))
		require.NoError(t, err)
		assert.Equal(t, []Segment{
			{Text: "Hola", Start: 0, End: 4},
			{Text: "Adiós", Start: 4, End: 7},
		}, got)
	})

	t.Run("explicit ends", func(t *testing.T) {
		got, err := ParseYAML([]byte(`- start: 2.5
  end: 5.1
  text: Second
- start: 0
  end: 2.5
  text: First
`))
		require.NoError(t, err)
		assert.Equal(t, []Segment{
			{Text: "First", Start: 0, End: 2.5},
			{Text: "Second", Start: 2.5, End: 5.1},
		}, got)
	})

	t.Run("invalid end", func(t *testing.T) {
		_, err := ParseYAML([]byte(`- start: 3
  end: 1
  text: Backwards
`))
		assert.Error(t, err)
	})
}

func TestFileSource_Extract(t *testing.T) {
	dir := t.TempDir()
	vttPath := filepath.Join(dir, "captions.vtt")
	require.NoError(t, os.WriteFile(vttPath, []byte("WEBVTT\n\n00:00:01.000 --> 00:00:03.000\nHi\n"), 0644))
	panelPath := filepath.Join(dir, "transcript.txt")
	require.NoError(t, os.WriteFile(panelPath, []byte("0:01\nHi\n"), 0644))

	got, err := FileSource{Path: vttPath}.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Segment{{Text: "Hi", Start: 1, End: 3}}, got)

	got, err = FileSource{Path: panelPath}.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Segment{{Text: "Hi", Start: 1, End: 4}}, got)

	_, err = FileSource{Path: filepath.Join(dir, "missing.vtt")}.Extract(context.Background())
	assert.Error(t, err)
	assert.False(t, IsSourceUnavailable(err))
}

type fakePanel struct {
	mu        sync.Mutex
	hasButton bool
	openErr   error
	readyAt   int
	calls     int
	lines     []TimedLine
}

func (p *fakePanel) Open(ctx context.Context) (bool, error) {
	return p.hasButton, p.openErr
}

func (p *fakePanel) Lines(ctx context.Context) ([]TimedLine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.readyAt < 0 || p.calls < p.readyAt {
		return nil, nil
	}
	return p.lines, nil
}

func TestPanelSource_Extract(t *testing.T) {
	lines := []TimedLine{{Start: 0, Text: "Hola"}, {Start: 2.5, Text: "Adiós"}}

	tests := []struct {
		name      string
		panel     *fakePanel
		want      []Segment
		wantErr   error
		wantCalls int
	}{
		{
			name:      "lines render after a few polls",
			panel:     &fakePanel{hasButton: true, readyAt: 3, lines: lines},
			want:      []Segment{{Text: "Hola", Start: 0, End: 2.5}, {Text: "Adiós", Start: 2.5, End: 5.5}},
			wantCalls: 3,
		},
		{
			name:    "no transcript button",
			panel:   &fakePanel{hasButton: false},
			wantErr: ErrCaptionsUnavailable,
		},
		{
			name:      "panel never loads",
			panel:     &fakePanel{hasButton: true, readyAt: -1},
			wantErr:   ErrPanelLoadTimeout,
			wantCalls: 5,
		},
		{
			name:    "open fails",
			panel:   &fakePanel{openErr: errors.New("detached")},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := NewPanelSource(tt.panel).WithPolling(5, time.Millisecond)
			got, err := source.Extract(context.Background())

			if tt.panel.openErr != nil {
				assert.ErrorIs(t, err, tt.panel.openErr)
				return
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsSourceUnavailable(err))
				assert.Equal(t, tt.wantCalls, tt.panel.calls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, tt.panel.calls)
		})
	}
}

func TestStatic_Extract(t *testing.T) {
	got, err := Static{{Text: "b", Start: 3, End: 4}, {Text: "a", Start: 1, End: 2}}.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", got[0].Text)

	_, err = Static{}.Extract(context.Background())
	assert.ErrorIs(t, err, ErrNoSegmentsFound)
}
