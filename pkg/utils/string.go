package utils

import "unicode/utf8"

// Truncate shortens s to at most maxLen bytes plus an ellipsis, backing the
// cut up to the nearest rune boundary so a multi-byte character is never
// split.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return "..."
	}

	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
