package analytics

import (
	"strings"
	"unicode/utf8"
)

// NormalizeKey builds the grouping key used to cluster transactions that
// refer to the same payee. Digits and the characters # * - _ are dropped so
// invoice numbers and reference suffixes do not split a group.
func NormalizeKey(merchant, description string) string {
	raw := strings.ToLower(merchant) + " " + strings.ToLower(description)

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			continue
		case r == '#', r == '*', r == '-', r == '_':
			continue
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
