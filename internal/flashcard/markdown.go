package flashcard

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/at-ishikawa/fluentai/internal/language"
)

// RenderMarkdown renders cards as a printable study sheet.
func RenderMarkdown(title string, cards []Card) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", title)
	if len(cards) == 0 {
		buf.WriteString("No flashcards yet.\n")
		return buf.Bytes()
	}

	cards = slices.Clone(cards)
	slices.SortStableFunc(cards, func(a, b Card) int { return strings.Compare(a.Language, b.Language) })

	currentLanguage := ""
	for _, card := range cards {
		if card.Language != currentLanguage {
			currentLanguage = card.Language
			fmt.Fprintf(&buf, "## %s\n\n", language.Name(currentLanguage))
		}
		fmt.Fprintf(&buf, "### %s\n\n", card.Word)
		fmt.Fprintf(&buf, "**%s**\n\n", card.Translation)
		if card.Description != "" {
			fmt.Fprintf(&buf, "%s\n\n", card.Description)
		}
		if card.Context != "" {
			fmt.Fprintf(&buf, "*%s*\n\n", card.Context)
		}
		fmt.Fprintf(&buf, "Reviewed %d times, %d%% correct, next review %s\n\n",
			card.ReviewCount, card.Accuracy(), card.NextReviewAt.Format("2006-01-02"))
	}
	return buf.Bytes()
}
