package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/statistics"
)

func (s *Server) languageParam(r *http.Request) string {
	return r.URL.Query().Get("language")
}

func (s *Server) listFlashcards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.ByLanguage(r.Context(), s.languageParam(r))
	if err != nil {
		jsonError(w, "failed to list flashcards: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cards))
}

func (s *Server) addFlashcard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Word        string `json:"word"`
		Translation string `json:"translation"`
		Language    string `json:"language"`
		Context     string `json:"context"`
		Description string `json:"description"`
	}
	if err := decode(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Word) == "" || strings.TrimSpace(req.Translation) == "" {
		jsonError(w, "word and translation are required", http.StatusBadRequest)
		return
	}
	if req.Language == "" {
		req.Language = s.options.TargetLanguage
	}

	exists, err := s.store.Exists(r.Context(), req.Word, req.Language)
	if err != nil {
		jsonError(w, "failed to check the flashcard: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if exists {
		jsonError(w, "flashcard already exists", http.StatusConflict)
		return
	}

	card := flashcard.NewCard(req.Word, req.Translation, req.Language, s.now())
	card.Context = req.Context
	card.Description = req.Description
	card.Confidence = 100
	if _, err := s.store.Add(r.Context(), &card); err != nil {
		jsonError(w, "failed to add the flashcard: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (s *Server) dueFlashcards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.Due(r.Context(), s.languageParam(r), s.now())
	if err != nil {
		jsonError(w, "failed to list due flashcards: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cards))
}

func (s *Server) exportFlashcards(w http.ResponseWriter, r *http.Request) {
	data, err := flashcard.Export(r.Context(), s.store, s.languageParam(r))
	if err != nil {
		jsonError(w, "failed to export flashcards: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="fluentai-flashcards.json"`)
	_, _ = w.Write(data)
}

func (s *Server) importFlashcards(w http.ResponseWriter, r *http.Request) {
	merge := true
	if value := r.URL.Query().Get("merge"); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			jsonError(w, "merge must be true or false", http.StatusBadRequest)
			return
		}
		merge = parsed
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "failed to read the request body", http.StatusBadRequest)
		return
	}

	count, err := flashcard.Import(r.Context(), s.store, data, merge, s.now())
	if errors.Is(err, flashcard.ErrInvalidImport) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		jsonError(w, "failed to import flashcards: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}

func (s *Server) flashcardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := flashcard.GetStats(r.Context(), s.store, s.languageParam(r), s.now())
	if err != nil {
		jsonError(w, "failed to count flashcards: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) deleteFlashcard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		jsonError(w, "invalid flashcard ID", http.StatusBadRequest)
		return
	}
	err = s.store.Delete(r.Context(), id)
	if errors.Is(err, flashcard.ErrNotFound) {
		jsonError(w, "flashcard not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete the flashcard: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reviewFlashcard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		jsonError(w, "invalid flashcard ID", http.StatusBadRequest)
		return
	}
	var req struct {
		Correct bool `json:"correct"`
	}
	if err := decode(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	card, err := s.store.Get(r.Context(), id)
	if errors.Is(err, flashcard.ErrNotFound) {
		jsonError(w, "flashcard not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to get the flashcard: "+err.Error(), http.StatusInternalServerError)
		return
	}

	flashcard.Review(card, flashcard.QualityFor(req.Correct), s.now())
	if err := s.store.Update(r.Context(), card); err != nil {
		jsonError(w, "failed to update the flashcard: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if s.tracker != nil {
		if _, err := s.tracker.RecordAttempt(r.Context(), statistics.KindFlashcard, req.Correct); err != nil {
			slog.Default().Warn("failed to record the review", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, card)
}

func nonNil(cards []flashcard.Card) []flashcard.Card {
	if cards == nil {
		return []flashcard.Card{}
	}
	return cards
}
