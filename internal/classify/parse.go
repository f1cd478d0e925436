package classify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripFences removes a wrapping markdown code fence if the model added one
// despite the "JSON only" instruction.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// trimQuotes removes one layer of wrapping quotes from plain-text replies.
// Some models echo the rewritten message back as a quoted string.
func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// decodeJSON parses a model reply into v, tolerating code fences and leading
// prose before the first bracket.
func decodeJSON(raw string, v any) error {
	s := stripFences(raw)
	if i := strings.IndexAny(s, "[{"); i > 0 {
		s = s[i:]
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("classify: parse model reply: %w", err)
	}
	return nil
}
