// Package sanitize normalizes and bounds free-text search input before it
// reaches the location store or the activity log.
package sanitize

import "strings"

// MaxQueryLength is the default rune bound applied before character
// filtering, and the hard ceiling for configured bounds.
const MaxQueryLength = 100

// Query normalizes a raw search query. It trims surrounding whitespace,
// truncates to MaxQueryLength runes, drops every character outside
// [A-Za-z0-9 \-.,#&'()], and collapses internal whitespace runs to single
// spaces. The function is pure and idempotent.
func Query(raw string) string {
	return QueryBounded(raw, MaxQueryLength)
}

// QueryBounded is Query with a caller-chosen rune bound. Bounds outside
// (0, MaxQueryLength] fall back to MaxQueryLength, so the store's term
// length guard always holds.
func QueryBounded(raw string, maxRunes int) string {
	if maxRunes <= 0 || maxRunes > MaxQueryLength {
		maxRunes = MaxQueryLength
	}

	trimmed := strings.TrimSpace(raw)

	if runes := []rune(trimmed); len(runes) > maxRunes {
		trimmed = string(runes[:maxRunes])
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	lastWasSpace := false
	for _, r := range trimmed {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastWasSpace && b.Len() > 0 {
				b.WriteByte(' ')
				lastWasSpace = true
			}
			continue
		}
		if !allowed(r) {
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}

	return strings.TrimRight(b.String(), " ")
}

func allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	}
	switch r {
	case '-', '.', ',', '#', '&', '\'', '(', ')':
		return true
	}
	return false
}
