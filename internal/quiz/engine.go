package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/at-ishikawa/fluentai/internal/capability"
	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/grader"
	"github.com/at-ishikawa/fluentai/internal/inference"
	"github.com/at-ishikawa/fluentai/internal/language"
	"github.com/at-ishikawa/fluentai/internal/translation"
)

var (
	ErrNotEnoughCards = errors.New("at least two flashcards are needed for a quiz")
	ErrNoContent      = errors.New("no content available for a quiz: watch more videos or add flashcards")
)

const (
	DefaultQuestions = 5
	maxDistractors   = 3
	aiQuestions      = 3
)

// Generator produces free text for a prompt.
type Generator func(ctx context.Context, prompt string) (string, error)

// WriterGenerator generates with the on-device writer when the bridge host has one.
func WriterGenerator(requester capability.Requester, capabilities translation.Capabilities) Generator {
	return func(ctx context.Context, prompt string) (string, error) {
		if !capabilities.Descriptor(ctx).Writer {
			return "", errors.New("writer not available")
		}
		return translation.Generate(ctx, requester, prompt)
	}
}

// CloudGenerator generates with a remote model.
func CloudGenerator(client inference.Client) Generator {
	return func(ctx context.Context, prompt string) (string, error) {
		return client.Generate(ctx, inference.GenerateRequest{Prompt: prompt, Temperature: 0.7})
	}
}

// Translator looks up reference translations for translation questions.
type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) translation.Result
}

// Context is what a quiz can be built from.
type Context struct {
	Subtitle   string
	Cards      []flashcard.Card
	Vocabulary []string
}

type Engine struct {
	generators     []Generator
	grader         *grader.Grader
	translator     Translator
	nativeLanguage string
	targetLanguage string
	rand           *rand.Rand
}

type EngineOption func(*Engine)

// WithGenerators sets the generators tried, in order, before the built-in questions.
func WithGenerators(generators ...Generator) EngineOption {
	return func(e *Engine) {
		e.generators = generators
	}
}

func WithTranslator(translator Translator) EngineOption {
	return func(e *Engine) {
		e.translator = translator
	}
}

func WithRand(r *rand.Rand) EngineOption {
	return func(e *Engine) {
		e.rand = r
	}
}

func NewEngine(g *grader.Grader, nativeLanguage, targetLanguage string, options ...EngineOption) *Engine {
	seed := uint64(time.Now().UnixNano())
	engine := &Engine{
		grader:         g,
		nativeLanguage: nativeLanguage,
		targetLanguage: targetLanguage,
		rand:           rand.New(rand.NewPCG(seed, seed>>1)),
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// FromFlashcards asks for the meaning of up to n cards, each with up to three
// distractors taken from the other cards.
func (e *Engine) FromFlashcards(cards []flashcard.Card, n int) (*Quiz, error) {
	if len(cards) < 2 {
		return nil, ErrNotEnoughCards
	}
	if n <= 0 {
		n = DefaultQuestions
	}
	shuffled := e.shuffleCards(cards)

	questions := make([]Question, 0, min(n, len(shuffled)))
	for _, card := range shuffled[:min(n, len(shuffled))] {
		questions = append(questions, e.multipleChoice(card, shuffled))
	}
	return e.newQuiz(questions), nil
}

// Build asks the generators for questions and falls back to built-in ones.
func (e *Engine) Build(ctx context.Context, quizContext Context) (*Quiz, error) {
	cards := make([]flashcard.Card, 0, len(quizContext.Cards))
	for _, card := range quizContext.Cards {
		if card.Language == e.targetLanguage {
			cards = append(cards, card)
		}
	}
	if strings.TrimSpace(quizContext.Subtitle) == "" && len(cards) == 0 {
		return nil, ErrNoContent
	}

	prompt := generationPrompt(language.Name(e.targetLanguage), quizContext.Subtitle, cards)
	for i, generate := range e.generators {
		questions, err := e.generate(ctx, generate, prompt)
		if err != nil {
			slog.Default().Warn("quiz generator failed", "generator", i, "error", err)
			continue
		}
		return e.newQuiz(questions), nil
	}

	questions := e.fallback(quizContext.Subtitle, cards, quizContext.Vocabulary)
	if len(questions) == 0 {
		return nil, ErrNoContent
	}
	return e.newQuiz(questions), nil
}

func (e *Engine) generate(ctx context.Context, generate Generator, prompt string) ([]Question, error) {
	content, err := generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var questions []Question
	if err := inference.DecodeJSON(content, &questions); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, errors.New("no questions generated")
	}
	for _, question := range questions {
		if err := question.Validate(); err != nil {
			return nil, err
		}
	}
	return questions, nil
}

func generationPrompt(targetLanguage, subtitle string, cards []flashcard.Card) string {
	quizContext := subtitle
	if strings.TrimSpace(quizContext) == "" {
		pairs := make([]string, 0, len(cards))
		for _, card := range cards {
			pairs = append(pairs, fmt.Sprintf("%s: %s", card.Word, card.Translation))
		}
		quizContext = strings.Join(pairs, ", ")
	}
	return fmt.Sprintf(`Create %d language learning quiz questions for %s learners. Context: %q.
Return only JSON in this format:
[
  {
    "type": "multiple-choice",
    "question": "question text",
    "options": ["option1", "option2", "option3", "option4"],
    "correct": "correct answer"
  }
]`, aiQuestions, targetLanguage, quizContext)
}

func (e *Engine) fallback(subtitle string, cards []flashcard.Card, vocabulary []string) []Question {
	var questions []Question
	if len(cards) >= 2 {
		card := cards[e.rand.IntN(len(cards))]
		questions = append(questions, e.multipleChoice(card, e.shuffleCards(cards)))
	}
	if question, ok := e.fillBlank(subtitle); ok {
		questions = append(questions, question)
	}
	if len(vocabulary) > 0 {
		questions = append(questions, Question{
			Type:   TypeTranslation,
			Prompt: fmt.Sprintf("Translate this word to %s:", language.Name(e.nativeLanguage)),
			Word:   vocabulary[e.rand.IntN(len(vocabulary))],
		})
	}
	return questions
}

func (e *Engine) multipleChoice(card flashcard.Card, pool []flashcard.Card) Question {
	options := []string{card.Translation}
	for _, other := range pool {
		if len(options) > maxDistractors {
			break
		}
		if other.ID == card.ID && other.Word == card.Word {
			continue
		}
		if containsFold(options, other.Translation) {
			continue
		}
		options = append(options, other.Translation)
	}
	e.rand.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return Question{
		Type:    TypeMultipleChoice,
		Prompt:  fmt.Sprintf("What does %q mean?", card.Word),
		Options: options,
		Correct: card.Translation,
		CardID:  card.ID,
	}
}

// fillBlank hides one word of at least three letters.
func (e *Engine) fillBlank(subtitle string) (Question, bool) {
	words := strings.Fields(subtitle)
	if len(words) <= 3 {
		return Question{}, false
	}
	var candidates []int
	for i, word := range words {
		if len([]rune(trimPunctuation(word))) >= 3 {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return Question{}, false
	}
	i := candidates[e.rand.IntN(len(candidates))]
	missing := trimPunctuation(words[i])
	words[i] = strings.Replace(words[i], missing, blank, 1)
	return Question{
		Type:     TypeFillBlank,
		Prompt:   "Fill in the blank:",
		Sentence: strings.Join(words, " "),
		Correct:  missing,
	}, true
}

func trimPunctuation(word string) string {
	return strings.TrimFunc(word, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
}

func containsFold(values []string, value string) bool {
	for _, v := range values {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

func (e *Engine) shuffleCards(cards []flashcard.Card) []flashcard.Card {
	shuffled := make([]flashcard.Card, len(cards))
	copy(shuffled, cards)
	e.rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled
}

func (e *Engine) newQuiz(questions []Question) *Quiz {
	return &Quiz{engine: e, Questions: questions}
}

// PracticePrompt is the reminder question for a card.
func PracticePrompt(card flashcard.Card) string {
	return fmt.Sprintf("How do you say %q in %s?", card.Translation, language.Name(card.Language))
}

// PickPractice chooses the card a reminder asks about, preferring due cards.
func (e *Engine) PickPractice(cards []flashcard.Card, now time.Time) (flashcard.Card, bool) {
	if len(cards) == 0 {
		return flashcard.Card{}, false
	}
	var due []flashcard.Card
	for _, card := range cards {
		if card.IsDue(now) {
			due = append(due, card)
		}
	}
	if len(due) > 0 {
		return due[e.rand.IntN(len(due))], true
	}
	return cards[e.rand.IntN(len(cards))], true
}
