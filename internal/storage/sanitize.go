package storage

import "strings"

// escapeLikeTerm escapes SQLite LIKE special characters so user input never
// acts as a wildcard.
// SQLite LIKE special characters: % (matches any sequence of characters)
//
//	_ (matches any single character)
//	\ (escape character when specified)
func escapeLikeTerm(term string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\", // Escape backslash first
		"%", "\\%", // Escape percent
		"_", "\\_", // Escape underscore
	)
	return replacer.Replace(term)
}
