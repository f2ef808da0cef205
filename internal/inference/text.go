package inference

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the JSON document in a model response, dropping markdown
// code fences and any text around the outermost object or array.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)
	if _, after, ok := strings.Cut(content, "```json"); ok {
		content, _, _ = strings.Cut(after, "```")
	} else if _, after, ok := strings.Cut(content, "```"); ok {
		content, _, _ = strings.Cut(after, "```")
	}
	content = strings.TrimSpace(content)

	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return content
	}
	closing := byte('}')
	if content[start] == '[' {
		closing = ']'
	}
	end := strings.LastIndexByte(content, closing)
	if end < start {
		return content[start:]
	}
	return content[start : end+1]
}

// DecodeJSON extracts and decodes the JSON document in content.
func DecodeJSON(content string, v any) error {
	body := ExtractJSON(content)
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("json.Unmarshal(%s) > %w", body, err)
	}
	return nil
}

// CleanTranslation keeps the first line of a model answer and strips the
// quotes, backticks and trailing periods models like to add.
func CleanTranslation(content string) string {
	content = strings.TrimSpace(content)
	if line, _, ok := strings.Cut(content, "\n"); ok {
		content = line
	}
	content = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', '`', '“', '”', '«', '»':
			return -1
		}
		return r
	}, content)
	content = strings.TrimRight(strings.TrimSpace(content), ".")
	return strings.TrimSpace(content)
}
