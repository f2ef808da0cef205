package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/quiz"
	"github.com/at-ishikawa/fluentai/internal/statistics"
)

type quizResponse struct {
	Questions []quiz.Question `json:"questions"`
}

func (s *Server) targetCards(r *http.Request) ([]flashcard.Card, error) {
	language := s.languageParam(r)
	if language == "" {
		language = s.options.TargetLanguage
	}
	return s.store.ByLanguage(r.Context(), language)
}

// getQuiz builds a multiple-choice quiz from the stored flashcards.
func (s *Server) getQuiz(w http.ResponseWriter, r *http.Request) {
	n := quiz.DefaultQuestions
	if value := r.URL.Query().Get("n"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			jsonError(w, "n must be a positive number", http.StatusBadRequest)
			return
		}
		n = parsed
	}
	cards, err := s.targetCards(r)
	if err != nil {
		jsonError(w, "failed to list flashcards: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.engineMu.Lock()
	q, err := s.engine.FromFlashcards(cards, n)
	s.engineMu.Unlock()
	if errors.Is(err, quiz.ErrNotEnoughCards) {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		jsonError(w, "failed to build the quiz: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Questions: q.Questions})
}

// buildQuiz generates questions about the subtitle being watched.
func (s *Server) buildQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subtitle   string   `json:"subtitle"`
		Vocabulary []string `json:"vocabulary"`
	}
	if err := decode(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cards, err := s.targetCards(r)
	if err != nil {
		jsonError(w, "failed to list flashcards: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.engineMu.Lock()
	q, err := s.engine.Build(r.Context(), quiz.Context{
		Subtitle:   req.Subtitle,
		Cards:      cards,
		Vocabulary: req.Vocabulary,
	})
	s.engineMu.Unlock()
	if errors.Is(err, quiz.ErrNoContent) {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		jsonError(w, "failed to build the quiz: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Questions: q.Questions})
}

func (s *Server) recordQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Correct int `json:"correct"`
		Total   int `json:"total"`
	}
	if err := decode(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	stats, err := s.tracker.RecordQuiz(r.Context(), statistics.KindQuiz, req.Correct, req.Total)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Stats: stats, Accuracy: stats.Accuracy()})
}
