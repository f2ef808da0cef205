package server

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/fluentai/internal/capability"
	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/grader"
	mock_flashcard "github.com/at-ishikawa/fluentai/internal/mocks/flashcard"
	"github.com/at-ishikawa/fluentai/internal/quiz"
	"github.com/at-ishikawa/fluentai/internal/statistics"
	"github.com/at-ishikawa/fluentai/internal/translation"
)

var testNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

// mapTranslator only knows Spanish to English.
type mapTranslator map[string]string

func (m mapTranslator) Translate(_ context.Context, text, sourceLanguage, targetLanguage string) translation.Result {
	if got, ok := m[text]; ok && sourceLanguage == "es" && targetLanguage == "en" {
		return translation.Result{Translation: got, Confidence: 80, Source: translation.NameOnDeviceTranslator}
	}
	return translation.Result{Translation: text, Confidence: translation.FailedConfidence, Source: translation.SourceFailed, Failed: true}
}

type fixedCapabilities capability.Descriptor

func (f fixedCapabilities) Descriptor(context.Context) capability.Descriptor {
	return capability.Descriptor(f)
}

func newTestServer(t *testing.T, store flashcard.Store) (*Server, http.Handler) {
	t.Helper()
	if store == nil {
		store = flashcard.NewYAMLStore(filepath.Join(t.TempDir(), "cards.yml"))
	}
	g := grader.New(nil, grader.DefaultOptions())
	words := mapTranslator{"perro": "dog", "gato": "cat"}
	sentences := mapTranslator{"¿Dónde está la biblioteca?": "Where is the library?"}
	s := New(Options{
		NativeLanguage: "en",
		TargetLanguage: "es",
		AllowedOrigins: []string{"http://localhost:3000"},
	}, Dependencies{
		Store:        store,
		Words:        words,
		Sentences:    sentences,
		Grader:       g,
		Engine:       quiz.NewEngine(g, "en", "es", quiz.WithRand(rand.New(rand.NewPCG(1, 2)))),
		Tracker:      statistics.NewTracker(statistics.NewFileRepository(filepath.Join(t.TempDir(), "stats.yml"))),
		Capabilities: fixedCapabilities{Translator: true},
	})
	s.now = func() time.Time { return testNow }
	return s, s.Router()
}

func do(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestServer_Health(t *testing.T) {
	_, handler := newTestServer(t, nil)
	rec := do(t, handler, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, handler, http.MethodGet, "/api/capabilities", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"apis":{"translator":true,"languageDetector":false,"writer":false},"semanticValidation":false}`, rec.Body.String())
}

func TestServer_CORS(t *testing.T) {
	_, handler := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/flashcards", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Flashcards(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := do(t, handler, http.MethodGet, "/api/flashcards", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, handler, http.MethodPost, "/api/flashcards", `{"word":"perro","translation":"dog"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[flashcard.Card](t, rec)
	assert.Equal(t, "es", created.Language)
	assert.NotZero(t, created.ID)

	rec = do(t, handler, http.MethodPost, "/api/flashcards", `{"word":"Perro","translation":"dog"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, handler, http.MethodPost, "/api/flashcards", `{"word":"gato"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, handler, http.MethodGet, "/api/flashcards/due?language=es", "")
	assert.Len(t, decodeBody[[]flashcard.Card](t, rec), 1)

	rec = do(t, handler, http.MethodPost, "/api/flashcards/1/review", `{"correct":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	reviewed := decodeBody[flashcard.Card](t, rec)
	assert.Equal(t, 1, reviewed.ReviewCount)
	assert.Equal(t, testNow.AddDate(0, 0, 1), reviewed.NextReviewAt.UTC())

	rec = do(t, handler, http.MethodGet, "/api/flashcards/stats", "")
	assert.JSONEq(t, `{"total":1,"due":0}`, rec.Body.String())

	rec = do(t, handler, http.MethodGet, "/api/flashcards/export", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "fluentai-flashcards.json")
	exported := rec.Body.String()

	rec = do(t, handler, http.MethodPost, "/api/flashcards/import?merge=true", exported)
	assert.JSONEq(t, `{"imported":0}`, rec.Body.String())
	rec = do(t, handler, http.MethodPost, "/api/flashcards/import?merge=nope", exported)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, handler, http.MethodPost, "/api/flashcards/import", `{"word":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, handler, http.MethodDelete, "/api/flashcards/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, handler, http.MethodDelete, "/api/flashcards/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, handler, http.MethodDelete, "/api/flashcards/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Flashcards_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_flashcard.NewMockStore(ctrl)
	store.EXPECT().ByLanguage(gomock.Any(), "fr").Return(nil, errors.New("disk full"))
	_, handler := newTestServer(t, store)

	rec := do(t, handler, http.MethodGet, "/api/flashcards?language=fr", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to list flashcards: disk full"}`, rec.Body.String())
}

func TestServer_Translate(t *testing.T) {
	_, handler := newTestServer(t, nil)
	tests := []struct {
		name     string
		body     string
		wantCode int
		want     translation.Result
	}{
		{
			name:     "word",
			body:     `{"text":"perro"}`,
			wantCode: http.StatusOK,
			want:     translation.Result{Translation: "dog", Confidence: 80, Source: translation.NameOnDeviceTranslator},
		},
		{
			name:     "sentence",
			body:     `{"text":"¿Dónde está la biblioteca?","kind":"sentence"}`,
			wantCode: http.StatusOK,
			want:     translation.Result{Translation: "Where is the library?", Confidence: 80, Source: translation.NameOnDeviceTranslator},
		},
		{
			name:     "explicit direction",
			body:     `{"text":"perro","sourceLanguage":"en","targetLanguage":"es"}`,
			wantCode: http.StatusOK,
			want:     translation.Result{Translation: "perro", Confidence: 20, Source: translation.SourceFailed, Failed: true},
		},
		{
			name:     "exhausted",
			body:     `{"text":"caballo"}`,
			wantCode: http.StatusOK,
			want:     translation.Result{Translation: "caballo", Confidence: 20, Source: translation.SourceFailed, Failed: true},
		},
		{name: "empty", body: `{"text":" "}`, wantCode: http.StatusBadRequest},
		{name: "unknown kind", body: `{"text":"perro","kind":"poem"}`, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, handler, http.MethodPost, "/api/translate", tt.body)
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.want, decodeBody[translation.Result](t, rec))
			}
		})
	}
}

func TestServer_Grade(t *testing.T) {
	_, handler := newTestServer(t, nil)
	tests := []struct {
		name        string
		body        string
		wantCode    int
		wantOutcome grader.Outcome
	}{
		{
			name:        "reference looked up",
			body:        `{"input":"where is the library","sourceText":"¿Dónde está la biblioteca?"}`,
			wantCode:    http.StatusOK,
			wantOutcome: grader.OutcomeAccepted,
		},
		{
			name:        "reference given",
			body:        `{"input":"Hello","sourceText":"Hola","reference":"Goodbye"}`,
			wantCode:    http.StatusOK,
			wantOutcome: grader.OutcomeRejected,
		},
		{
			name:        "no reference available",
			body:        `{"input":"hello","sourceText":"Hola"}`,
			wantCode:    http.StatusOK,
			wantOutcome: grader.OutcomeUnvalidated,
		},
		{name: "empty answer", body: `{"input":"","sourceText":"Hola"}`, wantCode: http.StatusBadRequest},
		{name: "escalation without validator", body: `{"input":"hola","reference":"hola","escalate":true}`, wantCode: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, handler, http.MethodPost, "/api/grade", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantOutcome, decodeBody[grader.Verdict](t, rec).Outcome)
			}
		})
	}

	rec := do(t, handler, http.MethodGet, "/api/stats", "")
	got := decodeBody[statsResponse](t, rec)
	assert.Equal(t, statistics.Stats{Correct: 1, Incorrect: 1, Total: 2}, got.Stats)
	assert.Equal(t, 50, got.Accuracy)
}

func TestServer_Quiz(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := do(t, handler, http.MethodGet, "/api/quiz", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	for _, body := range []string{
		`{"word":"perro","translation":"dog"}`,
		`{"word":"gato","translation":"cat"}`,
		`{"word":"casa","translation":"house"}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, handler, http.MethodPost, "/api/flashcards", body).Code)
	}

	rec = do(t, handler, http.MethodGet, "/api/quiz?n=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	questions := decodeBody[quizResponse](t, rec).Questions
	require.Len(t, questions, 2)
	for _, question := range questions {
		assert.Equal(t, quiz.TypeMultipleChoice, question.Type)
		assert.Contains(t, question.Options, question.Correct)
	}

	rec = do(t, handler, http.MethodGet, "/api/quiz?n=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, handler, http.MethodPost, "/api/quiz", `{"subtitle":"Where is the old library today"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody[quizResponse](t, rec).Questions)

	rec = do(t, handler, http.MethodPost, "/api/quiz/results", `{"correct":2,"total":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"correct":2,"incorrect":1,"streak":0,"total":3,"accuracy":67}`, rec.Body.String())

	rec = do(t, handler, http.MethodPost, "/api/quiz/results", `{"correct":4,"total":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Stats(t *testing.T) {
	_, handler := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, do(t, handler, http.MethodPost, "/api/quiz/results", `{"correct":1,"total":1}`).Code)

	rec := do(t, handler, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[statsResponse](t, rec)
	assert.Equal(t, 1, got.Streak)
	assert.Equal(t, 100, got.Accuracy)
	require.NotNil(t, got.Aggregate)
	assert.Equal(t, 1, got.Aggregate.Attempts)

	rec = do(t, handler, http.MethodGet, "/api/stats?month=may", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, handler, http.MethodDelete, "/api/stats", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, handler, http.MethodGet, "/api/stats", "")
	assert.Equal(t, 0, decodeBody[statsResponse](t, rec).Total)
}
