package session

import (
	"context"
	"errors"

	"github.com/at-ishikawa/fluentai/internal/grader"
	"github.com/at-ishikawa/fluentai/internal/transcript"
	"github.com/at-ishikawa/fluentai/internal/translation"
)

// UserMessage turns an error into a short instruction for the learner.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, transcript.ErrNoSegmentsFound):
		return "No subtitles found. Make sure captions are available for this video."
	case errors.Is(err, transcript.ErrPanelLoadTimeout):
		return "The transcript did not load. Please retry."
	case errors.Is(err, transcript.ErrCaptionsUnavailable):
		return "This video has no transcript. Try another video."
	case errors.Is(err, grader.ErrEmptyAnswer):
		return "Please enter an answer."
	case errors.Is(err, translation.ErrExhausted):
		return "Translator not available. Enable it in settings or add a Gemini API key."
	case errors.Is(err, ErrNoReview):
		return "Nothing to translate yet. Keep watching."
	case errors.Is(err, ErrAlreadySaved):
		return "Already in your flashcards."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Please try again."
	}
	return "Something went wrong. Please try again."
}
