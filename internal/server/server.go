// Package server exposes flashcards, translation, grading, quizzes and
// statistics to the popup over a JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/at-ishikawa/fluentai/internal/capability"
	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/grader"
	"github.com/at-ishikawa/fluentai/internal/quiz"
	"github.com/at-ishikawa/fluentai/internal/statistics"
	"github.com/at-ishikawa/fluentai/internal/translation"
)

const maxBodySize = 5 << 20

// Translator is satisfied by *translation.Chain.
type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) translation.Result
}

// CapabilityReporter is satisfied by *capability.Negotiator.
type CapabilityReporter interface {
	Descriptor(ctx context.Context) capability.Descriptor
}

type Options struct {
	NativeLanguage string
	TargetLanguage string
	AllowedOrigins []string
}

type Server struct {
	options      Options
	store        flashcard.Store
	words        Translator
	sentences    Translator
	grader       *grader.Grader
	engine       *quiz.Engine
	tracker      *statistics.Tracker
	capabilities CapabilityReporter
	now          func() time.Time

	// quiz.Engine shuffles with a rand source that is not safe for concurrent use
	engineMu sync.Mutex
}

type Dependencies struct {
	Store        flashcard.Store
	Words        Translator
	Sentences    Translator
	Grader       *grader.Grader
	Engine       *quiz.Engine
	Tracker      *statistics.Tracker
	Capabilities CapabilityReporter
}

func New(options Options, deps Dependencies) *Server {
	return &Server{
		options:      options,
		store:        deps.Store,
		words:        deps.Words,
		sentences:    deps.Sentences,
		grader:       deps.Grader,
		engine:       deps.Engine,
		tracker:      deps.Tracker,
		capabilities: deps.Capabilities,
		now:          time.Now,
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.options.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         3600,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(MaxBodySize(maxBodySize))

		r.Get("/health", s.health)
		r.Get("/capabilities", s.getCapabilities)

		// Flashcards
		r.Get("/flashcards", s.listFlashcards)
		r.Post("/flashcards", s.addFlashcard)
		r.Get("/flashcards/due", s.dueFlashcards)
		r.Get("/flashcards/export", s.exportFlashcards)
		r.Post("/flashcards/import", s.importFlashcards)
		r.Get("/flashcards/stats", s.flashcardStats)
		r.Delete("/flashcards/{id}", s.deleteFlashcard)
		r.Post("/flashcards/{id}/review", s.reviewFlashcard)

		r.Post("/translate", s.translate)
		r.Post("/grade", s.grade)

		r.Get("/quiz", s.getQuiz)
		r.Post("/quiz", s.buildQuiz)
		r.Post("/quiz/results", s.recordQuiz)

		r.Get("/stats", s.getStats)
		r.Delete("/stats", s.resetStats)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getCapabilities(w http.ResponseWriter, r *http.Request) {
	var descriptor capability.Descriptor
	if s.capabilities != nil {
		descriptor = s.capabilities.Descriptor(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"apis":               descriptor,
		"semanticValidation": s.grader != nil && s.grader.CanValidateSemantically(),
	})
}
