// Package strutil provides string helpers shared by the ai packages.
package strutil

import "unicode/utf8"

// Truncate cuts s to at most maxLen runes and appends "..." when anything was dropped.
// Returns "" if maxLen <= 0.
func Truncate(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
