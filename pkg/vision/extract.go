package vision

import (
	"encoding/json"
	"strings"
)

// ExtractJSONArray pulls the detection array out of model text.
// Priority: a fenced ```json block, then any fenced block, then the
// whole text. Each candidate is tried as-is and then trimmed to its
// outermost [...] span, since models pad arrays with prose.
func ExtractJSONArray(text string) ([]any, error) {
	for _, candidate := range arrayCandidates(text) {
		if items, ok := tryParseArray(candidate); ok {
			return items, nil
		}
	}
	return nil, ErrResponseFormat
}

func arrayCandidates(text string) []string {
	var out []string
	if block, ok := fencedBlock(text, "json"); ok {
		out = append(out, block)
	}
	if block, ok := fencedBlock(text, ""); ok {
		out = append(out, block)
	}
	return append(out, text)
}

// fencedBlock returns the contents of the first ``` fence. With a
// non-empty lang, only a fence tagged with that language matches.
func fencedBlock(text, lang string) (string, bool) {
	marker := "```" + lang
	start := strings.Index(text, marker)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(marker):]
	if lang == "" {
		// Skip a language tag on the opening fence.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func tryParseArray(candidate string) ([]any, bool) {
	candidate = strings.TrimSpace(candidate)
	if items, ok := unmarshalArray(candidate); ok {
		return items, true
	}
	// Trim to the outermost bracket span.
	start := strings.IndexByte(candidate, '[')
	end := strings.LastIndexByte(candidate, ']')
	if start >= 0 && end > start {
		if items, ok := unmarshalArray(candidate[start : end+1]); ok {
			return items, true
		}
	}
	return nil, false
}

func unmarshalArray(s string) ([]any, bool) {
	if s == "" || s[0] != '[' {
		return nil, false
	}
	var items []any
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, false
	}
	return items, true
}
