package server

import (
	"net/http"
	"strconv"

	"github.com/at-ishikawa/fluentai/internal/statistics"
)

type statsResponse struct {
	statistics.Stats
	Accuracy  int                             `json:"accuracy"`
	Periods   []statistics.PeriodStatistics   `json:"periods,omitempty"`
	Aggregate *statistics.AggregateStatistics `json:"aggregate,omitempty"`
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	var year, month int
	for name, target := range map[string]*int{"year": &year, "month": &month} {
		value := r.URL.Query().Get(name)
		if value == "" {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			jsonError(w, "invalid "+name, http.StatusBadRequest)
			return
		}
		*target = parsed
	}

	history, err := s.tracker.History(r.Context())
	if err != nil {
		jsonError(w, "failed to load statistics: "+err.Error(), http.StatusInternalServerError)
		return
	}
	cards, err := s.store.ByLanguage(r.Context(), "")
	if err != nil {
		jsonError(w, "failed to list flashcards: "+err.Error(), http.StatusInternalServerError)
		return
	}

	result := statistics.CalculateStatistics(history.Attempts, cards, year, month)
	writeJSON(w, http.StatusOK, statsResponse{
		Stats:     history.Stats,
		Accuracy:  history.Stats.Accuracy(),
		Periods:   result.Periods,
		Aggregate: &result.Aggregate,
	})
}

func (s *Server) resetStats(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.Reset(r.Context()); err != nil {
		jsonError(w, "failed to reset statistics: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
