package synth

import (
	"encoding/json"
	"strings"
)

const (
	jsonFence = "```json"
	fence     = "```"
)

// Clean strips markdown fences and surrounding prose from a model reply.
// When the text contains a brace-delimited span from the first '{' to the
// last '}' that parses as JSON, that span is returned; otherwise the
// fence-stripped text is returned unchanged for the caller to validate.
// It assumes a single top-level object.
func Clean(raw string) string {
	cleaned := strings.TrimSpace(raw)

	switch {
	case len(cleaned) >= len(jsonFence) && strings.EqualFold(cleaned[:len(jsonFence)], jsonFence):
		cleaned = cleaned[len(jsonFence):]
	case strings.HasPrefix(cleaned, fence):
		cleaned = cleaned[len(fence):]
	}
	cleaned = strings.TrimSuffix(cleaned, fence)
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if candidate := cleaned[start : end+1]; json.Valid([]byte(candidate)) {
			return candidate
		}
	}

	return cleaned
}
