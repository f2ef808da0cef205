package translation

import (
	"context"
	"log/slog"
)

type WordTranslation struct {
	Word   string
	Result Result
}

// TranslateBatch translates words one by one after a single readiness probe.
// Failed words are left out. readiness may be nil.
func (c *Chain) TranslateBatch(
	ctx context.Context,
	readiness *Readiness,
	words []string,
	sourceLanguage, targetLanguage string,
	onProgress func(done, total int),
) []WordTranslation {
	if readiness != nil {
		readiness.Wait(ctx, sourceLanguage, targetLanguage, nil)
	}

	translations := make([]WordTranslation, 0, len(words))
	for i, word := range words {
		if ctx.Err() != nil {
			break
		}
		result := c.Translate(ctx, word, sourceLanguage, targetLanguage)
		if onProgress != nil {
			onProgress(i+1, len(words))
		}
		if result.Failed {
			continue
		}
		translations = append(translations, WordTranslation{Word: word, Result: result})
	}
	slog.Default().Info("translated vocabulary",
		"requested", len(words),
		"translated", len(translations),
	)
	return translations
}
