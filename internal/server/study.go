package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/at-ishikawa/fluentai/internal/grader"
	"github.com/at-ishikawa/fluentai/internal/statistics"
)

const (
	kindWord     = "word"
	kindSentence = "sentence"
)

func (s *Server) translate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text           string `json:"text"`
		SourceLanguage string `json:"sourceLanguage"`
		TargetLanguage string `json:"targetLanguage"`
		Kind           string `json:"kind"`
	}
	if err := decode(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	translator := s.words
	switch req.Kind {
	case "", kindWord:
	case kindSentence:
		translator = s.sentences
	default:
		jsonError(w, "kind must be word or sentence", http.StatusBadRequest)
		return
	}
	// Captions and vocabulary are in the language being learned
	if req.SourceLanguage == "" {
		req.SourceLanguage = s.options.TargetLanguage
	}
	if req.TargetLanguage == "" {
		req.TargetLanguage = s.options.NativeLanguage
	}

	writeJSON(w, http.StatusOK, translator.Translate(r.Context(), req.Text, req.SourceLanguage, req.TargetLanguage))
}

func (s *Server) grade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input      string `json:"input"`
		SourceText string `json:"sourceText"`
		Reference  string `json:"reference"`
		Escalate   bool   `json:"escalate"`
	}
	if err := decode(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	attempt := grader.Attempt{
		Input:          req.Input,
		SourceText:     req.SourceText,
		Reference:      req.Reference,
		ReferenceOK:    req.Reference != "",
		SourceLanguage: s.options.TargetLanguage,
		TargetLanguage: s.options.NativeLanguage,
	}
	if attempt.Reference == "" && strings.TrimSpace(req.Input) != "" {
		result := s.sentences.Translate(r.Context(), req.SourceText, attempt.SourceLanguage, attempt.TargetLanguage)
		attempt.Reference = result.Translation
		attempt.ReferenceOK = !result.Failed
	}

	var verdict grader.Verdict
	var err error
	if req.Escalate {
		verdict, err = s.grader.Escalate(r.Context(), attempt)
	} else {
		verdict, err = s.grader.Grade(r.Context(), attempt)
	}
	if errors.Is(err, grader.ErrEmptyAnswer) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if verdict.Scored() && s.tracker != nil {
		if _, err := s.tracker.RecordAttempt(r.Context(), statistics.KindSubtitle, verdict.Correct()); err != nil {
			slog.Default().Warn("failed to record the attempt", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, verdict)
}
