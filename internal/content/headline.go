package content

import (
	"strings"
	"unicode"
)

// SanitizeHeadline collapses immediately repeated words, compared
// case-insensitively and ignoring surrounding punctuation, and normalizes
// whitespace. "Best Best Pie Pie" becomes "Best Pie". The result is stable
// under repeated application.
func SanitizeHeadline(headline string) string {
	words := strings.Fields(headline)
	out := make([]string, 0, len(words))
	prev := ""
	for _, w := range words {
		key := wordKey(w)
		if len(out) > 0 && key == prev {
			continue
		}
		out = append(out, w)
		prev = key
	}
	return strings.Join(out, " ")
}

func wordKey(w string) string {
	trimmed := strings.TrimFunc(w, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	if trimmed == "" {
		trimmed = w
	}
	return strings.ToLower(trimmed)
}
