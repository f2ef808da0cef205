package quiz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/at-ishikawa/fluentai/internal/grader"
)

var ErrFinished = errors.New("quiz is finished")

type Answer struct {
	Question Question `json:"question"`
	Input    string   `json:"input"`
	Expected string   `json:"expected,omitempty"`
	Correct  bool     `json:"correct"`
	// Scored is false when the answer could not be checked.
	Scored   bool   `json:"scored"`
	Feedback string `json:"feedback"`
}

type Result struct {
	Score      int      `json:"score"`
	Total      int      `json:"total"`
	Percentage int      `json:"percentage"`
	Answers    []Answer `json:"answers"`
}

// Quiz walks through its questions in order.
type Quiz struct {
	engine    *Engine
	Questions []Question `json:"questions"`
	answers   []Answer
}

// Current returns the question waiting for an answer.
func (q *Quiz) Current() (Question, bool) {
	if q.Done() {
		return Question{}, false
	}
	return q.Questions[len(q.answers)], true
}

func (q *Quiz) Done() bool {
	return len(q.answers) >= len(q.Questions)
}

// Answer checks input against the current question and moves on.
func (q *Quiz) Answer(ctx context.Context, input string) (Answer, error) {
	question, ok := q.Current()
	if !ok {
		return Answer{}, ErrFinished
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return Answer{}, grader.ErrEmptyAnswer
	}

	var answer Answer
	var err error
	switch question.Type {
	case TypeMultipleChoice:
		answer = q.checkChoice(question, input)
	case TypeFillBlank:
		answer = checkFillBlank(question, input)
	case TypeTranslation:
		answer, err = q.checkTranslation(ctx, question, input)
	default:
		return Answer{}, fmt.Errorf("unknown question type %q", question.Type)
	}
	if err != nil {
		return Answer{}, err
	}
	q.answers = append(q.answers, answer)
	return answer, nil
}

func (q *Quiz) checkChoice(question Question, input string) Answer {
	chosen := question.resolveOption(input)
	answer := Answer{
		Question: question,
		Input:    chosen,
		Expected: question.Correct,
		Correct:  strings.EqualFold(strings.TrimSpace(chosen), strings.TrimSpace(question.Correct)),
		Scored:   true,
	}
	if answer.Correct {
		answer.Feedback = "Correct!"
	} else {
		answer.Feedback = fmt.Sprintf("Incorrect. The answer was: %s", question.Correct)
	}
	return answer
}

func checkFillBlank(question Question, input string) Answer {
	answer := Answer{
		Question: question,
		Input:    input,
		Expected: question.Correct,
		Correct:  grader.Normalize(input) == grader.Normalize(question.Correct),
		Scored:   true,
	}
	if answer.Correct {
		answer.Feedback = "Correct!"
	} else {
		answer.Feedback = fmt.Sprintf("Incorrect. The missing word was: %s", question.Correct)
	}
	return answer
}

func (q *Quiz) checkTranslation(ctx context.Context, question Question, input string) (Answer, error) {
	reference := question.Correct
	referenceOK := reference != ""
	if !referenceOK && q.engine.translator != nil {
		result := q.engine.translator.Translate(ctx, question.Word, q.engine.targetLanguage, q.engine.nativeLanguage)
		reference, referenceOK = result.Translation, !result.Failed
	}
	verdict, err := q.engine.grader.Grade(ctx, grader.Attempt{
		Input:          input,
		SourceText:     question.Word,
		Reference:      reference,
		ReferenceOK:    referenceOK,
		SourceLanguage: q.engine.targetLanguage,
		TargetLanguage: q.engine.nativeLanguage,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("grader.Grade() > %w", err)
	}
	answer := Answer{
		Question: question,
		Input:    input,
		Expected: verdict.Reference,
		Correct:  verdict.Correct(),
		Scored:   verdict.Scored(),
		Feedback: verdict.Feedback,
	}
	if !answer.Correct && answer.Scored && verdict.Reference != "" {
		answer.Feedback = fmt.Sprintf("%s The answer was: %s", verdict.Feedback, verdict.Reference)
	}
	return answer, nil
}

// Result summarizes the answers given so far. Unchecked answers do not count.
func (q *Quiz) Result() Result {
	result := Result{Answers: append([]Answer(nil), q.answers...)}
	for _, answer := range q.answers {
		if !answer.Scored {
			continue
		}
		result.Total++
		if answer.Correct {
			result.Score++
		}
	}
	if result.Total > 0 {
		result.Percentage = int(math.Round(float64(result.Score) * 100 / float64(result.Total)))
	}
	return result
}
