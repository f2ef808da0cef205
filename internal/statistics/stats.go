// Package statistics keeps the learner's running score.
package statistics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	KindSubtitle  = "subtitle"
	KindQuiz      = "quiz"
	KindFlashcard = "flashcard"
)

// Stats counts graded answers. Streak counts consecutive rounds without a mistake.
type Stats struct {
	Correct   int `json:"correct" yaml:"correct"`
	Incorrect int `json:"incorrect" yaml:"incorrect"`
	Streak    int `json:"streak" yaml:"streak"`
	Total     int `json:"total" yaml:"total"`
}

// Accuracy is the rounded share of correct answers in percent.
func (s Stats) Accuracy() int {
	if s.Total == 0 {
		return 0
	}
	return int(math.Round(float64(s.Correct) * 100 / float64(s.Total)))
}

// Record adds a round of total answers of which correct were right.
func (s *Stats) Record(correct, total int) {
	s.Correct += correct
	s.Incorrect += total - correct
	s.Total += total
	if correct == total {
		s.Streak++
	} else {
		s.Streak = 0
	}
}

// Attempt is one graded answer.
type Attempt struct {
	At      time.Time `json:"at" yaml:"at"`
	Kind    string    `json:"kind" yaml:"kind"`
	Correct bool      `json:"correct" yaml:"correct"`
}

type History struct {
	Stats    Stats     `json:"stats" yaml:"stats"`
	Attempts []Attempt `json:"attempts" yaml:"attempts"`
}

type Repository interface {
	Load(ctx context.Context) (History, error)
	Save(ctx context.Context, history History) error
}

// FileRepository stores the history in a YAML file.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Load(context.Context) (History, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return History{}, nil
	}
	if err != nil {
		return History{}, fmt.Errorf("os.ReadFile(%s) > %w", r.path, err)
	}
	var history History
	if err := yaml.Unmarshal(data, &history); err != nil {
		return History{}, fmt.Errorf("yaml.Unmarshal(%s) > %w", r.path, err)
	}
	return history, nil
}

func (r *FileRepository) Save(_ context.Context, history History) error {
	data, err := yaml.Marshal(history)
	if err != nil {
		return fmt.Errorf("yaml.Marshal() > %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
		}
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("os.WriteFile(%s) > %w", r.path, err)
	}
	return nil
}

// Tracker records answers through a Repository.
type Tracker struct {
	repository Repository
	now        func() time.Time
	mu         sync.Mutex
}

func NewTracker(repository Repository) *Tracker {
	return &Tracker{repository: repository, now: time.Now}
}

// RecordAttempt records a single answer as its own round.
func (t *Tracker) RecordAttempt(ctx context.Context, kind string, correct bool) (Stats, error) {
	score := 0
	if correct {
		score = 1
	}
	return t.RecordQuiz(ctx, kind, score, 1)
}

// RecordQuiz records a finished round of total answers.
func (t *Tracker) RecordQuiz(ctx context.Context, kind string, correct, total int) (Stats, error) {
	if total <= 0 || correct < 0 || correct > total {
		return Stats{}, fmt.Errorf("invalid score %d/%d", correct, total)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	history, err := t.repository.Load(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("repository.Load() > %w", err)
	}
	history.Stats.Record(correct, total)
	at := t.now()
	for i := range total {
		history.Attempts = append(history.Attempts, Attempt{At: at, Kind: kind, Correct: i < correct})
	}
	if err := t.repository.Save(ctx, history); err != nil {
		return Stats{}, fmt.Errorf("repository.Save() > %w", err)
	}
	return history.Stats, nil
}

func (t *Tracker) History(ctx context.Context) (History, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	history, err := t.repository.Load(ctx)
	if err != nil {
		return History{}, fmt.Errorf("repository.Load() > %w", err)
	}
	return history, nil
}

func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.repository.Save(ctx, History{}); err != nil {
		return fmt.Errorf("repository.Save() > %w", err)
	}
	return nil
}
