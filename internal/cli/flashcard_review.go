package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/grader"
	"github.com/at-ishikawa/fluentai/internal/language"
	"github.com/at-ishikawa/fluentai/internal/statistics"
)

// FlashcardReviewCLI asks for the meaning of every due card and reschedules it.
type FlashcardReviewCLI struct {
	*InteractiveQuizCLI
	store  flashcard.Store
	grader *grader.Grader
	cards  []flashcard.Card

	reviewed int
	correct  int
}

// NewFlashcardReviewCLI loads the cards of language that are due now.
func NewFlashcardReviewCLI(
	ctx context.Context,
	store flashcard.Store,
	g *grader.Grader,
	recorder Recorder,
	lang string,
) (*FlashcardReviewCLI, error) {
	base := newInteractiveQuizCLI(recorder)
	cards, err := store.Due(ctx, lang, base.now())
	if err != nil {
		return nil, fmt.Errorf("store.Due() > %w", err)
	}
	return &FlashcardReviewCLI{
		InteractiveQuizCLI: base,
		store:              store,
		grader:             g,
		cards:              cards,
	}, nil
}

// GetCardCount returns the number of remaining cards
func (r *FlashcardReviewCLI) GetCardCount() int {
	return len(r.cards)
}

func (r *FlashcardReviewCLI) Session(ctx context.Context) error {
	if len(r.cards) == 0 {
		if r.reviewed == 0 {
			fmt.Fprintln(r.stdoutWriter, "No flashcards are due. Come back later!")
		} else {
			fmt.Fprintf(r.stdoutWriter, "Reviewed %d cards, %d correct.\n", r.reviewed, r.correct)
		}
		return errEnd
	}
	card := r.cards[0]

	fmt.Fprintf(r.stdoutWriter, "[%d left] What does this %s word mean?\n", len(r.cards), language.Name(card.Language))
	if card.Context != "" {
		_, _ = r.italic.Fprintf(r.stdoutWriter, "  %s\n", card.Context)
	}
	_, _ = r.bold.Fprintf(r.stdoutWriter, "%s: ", card.Word)

	answer, err := r.readAnswer()
	if err != nil {
		return err
	}

	correct := false
	if answer != "" {
		verdict, err := r.grader.Grade(ctx, grader.Attempt{
			Input:       answer,
			SourceText:  card.Word,
			Reference:   card.Translation,
			ReferenceOK: true,
		})
		if err != nil && !errors.Is(err, grader.ErrEmptyAnswer) {
			return fmt.Errorf("grader.Grade() > %w", err)
		}
		correct = verdict.Correct()
	}

	if correct {
		r.printCorrect(`It's correct. %s means "%s"`, r.bold.Sprint(card.Word), r.italic.Sprint(card.Translation))
	} else {
		r.printWrong(`It's wrong. %s means "%s"`, r.bold.Sprint(card.Word), r.italic.Sprint(card.Translation))
	}
	if card.Description != "" {
		fmt.Fprintf(r.stdoutWriter, "   %s\n", card.Description)
	}

	flashcard.Review(&card, flashcard.QualityFor(correct), r.now())
	if err := r.store.Update(ctx, &card); err != nil {
		return fmt.Errorf("store.Update() > %w", err)
	}
	fmt.Fprintf(r.stdoutWriter, "   Next review: %s\n\n", card.NextReviewAt.Format("2006-01-02"))

	if r.recorder != nil {
		if _, err := r.recorder.RecordAttempt(ctx, statistics.KindFlashcard, correct); err != nil {
			slog.Default().Warn("failed to record the review", "error", err)
		}
	}

	r.reviewed++
	if correct {
		r.correct++
	}
	r.cards = r.cards[1:]
	return nil
}
