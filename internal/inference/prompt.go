package inference

import (
	"fmt"

	"github.com/at-ishikawa/fluentai/internal/language"
)

// TranslationPrompt asks for a bare translation of text.
func TranslationPrompt(params TranslateRequest) string {
	return fmt.Sprintf(
		"Translate this %s text to %s. Only provide the translation, nothing else: %q",
		language.Name(params.SourceLanguage),
		language.Name(params.TargetLanguage),
		params.Text,
	)
}

// WordTranslationPrompt constrains a general purpose writer model to a single word answer.
func WordTranslationPrompt(params TranslateRequest) string {
	target := language.Name(params.TargetLanguage)
	return fmt.Sprintf(
		"Translate the %s word %q to %s. Provide ONLY the %s translation, nothing else. "+
			"Do not include the original word, explanations, or punctuation.",
		language.Name(params.SourceLanguage),
		params.Text,
		target,
		target,
	)
}

// ValidationPrompt asks the model to judge a student's translation against a reference.
func ValidationPrompt(params ValidateTranslationRequest) string {
	source := language.Name(params.SourceLanguage)
	target := language.Name(params.TargetLanguage)
	return fmt.Sprintf(`You are a language learning tutor. Evaluate this translation exercise.

SOURCE TEXT (%s): %q
MACHINE TRANSLATION (%s): %q
STUDENT ANSWER (%s): %q

Tasks:
1. Is the student's answer correct? (Consider natural phrasing, not just literal translation)
2. Is the machine translation accurate? (It sometimes does literal word-by-word translations)
3. Provide constructive feedback for the student

Respond with JSON only, no other text:
{
  "studentCorrect": true or false,
  "chromeCorrect": true or false,
  "bestTranslation": "the most natural translation",
  "feedback": "encouraging feedback for student (2-3 sentences max)",
  "confidence": 0-100
}`,
		source, params.SourceText,
		target, params.Reference,
		target, params.StudentAnswer,
	)
}

// ValidateWithGenerate runs ValidationPrompt through generate and decodes the verdict.
func ValidateWithGenerate(
	generate func(GenerateRequest) (string, error),
	params ValidateTranslationRequest,
) (ValidateTranslationResponse, error) {
	content, err := generate(GenerateRequest{Prompt: ValidationPrompt(params), Temperature: 0.1})
	if err != nil {
		return ValidateTranslationResponse{}, err
	}
	var decoded ValidateTranslationResponse
	if err := DecodeJSON(content, &decoded); err != nil {
		return ValidateTranslationResponse{}, err
	}
	return decoded, nil
}
