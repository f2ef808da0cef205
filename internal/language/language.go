// Package language resolves the language codes used in settings and prompts.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var supported = map[string]struct{}{
	"en": {}, "es": {}, "fr": {}, "de": {}, "it": {}, "pt": {},
	"ja": {}, "ko": {}, "zh": {}, "ru": {}, "ar": {}, "hi": {},
}

// Base returns the primary language subtag of code, e.g. "es" for "es-MX".
// An unparsable code is returned lower-cased as is.
func Base(code string) string {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(code))
	}
	base, _ := tag.Base()
	return base.String()
}

// Supported reports whether code names a language the translator tiers handle.
func Supported(code string) bool {
	_, ok := supported[Base(code)]
	return ok
}

// Name returns the English display name for code, falling back to the code.
func Name(code string) string {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return code
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return code
	}
	return name
}
