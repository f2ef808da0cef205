// Package quiz builds short quizzes from flashcards and subtitles and scores them.
package quiz

import (
	"fmt"
	"slices"
	"strings"
)

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple-choice"
	TypeFillBlank      QuestionType = "fill-blank"
	TypeTranslation    QuestionType = "translation"
)

const blank = "_____"

type Question struct {
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"question"`
	Options  []string     `json:"options,omitempty"`
	Sentence string       `json:"sentence,omitempty"`
	Word     string       `json:"word,omitempty"`
	// Correct is empty for translation questions whose answer is looked up when graded.
	Correct string `json:"correct,omitempty"`
	CardID  int64  `json:"cardId,omitempty"`
}

// Validate rejects generated questions the quiz cannot score.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("question has no text")
	}
	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("question %q has %d options", q.Prompt, len(q.Options))
		}
		if !slices.Contains(q.Options, q.Correct) {
			return fmt.Errorf("question %q does not offer its answer %q", q.Prompt, q.Correct)
		}
	case TypeFillBlank:
		if !strings.Contains(q.Sentence, blank) || q.Correct == "" {
			return fmt.Errorf("fill-blank question %q is incomplete", q.Prompt)
		}
	case TypeTranslation:
		if q.Word == "" {
			return fmt.Errorf("translation question %q has no word", q.Prompt)
		}
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	return nil
}

// resolveOption maps a 1-based option number to the option text.
func (q Question) resolveOption(input string) string {
	var index int
	if _, err := fmt.Sscanf(input, "%d", &index); err == nil && fmt.Sprint(index) == input {
		if index >= 1 && index <= len(q.Options) {
			return q.Options[index-1]
		}
	}
	return input
}
