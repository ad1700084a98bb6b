package streamcontext

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)

// referencesAny reports whether expr contains a bare-word reference (case
// insensitive) to any of names - used to gate async fetches on whether a
// user's expression actually needs the field.
func referencesAny(expr string, names []string) bool {
	for _, word := range wordPattern.FindAllString(expr, -1) {
		lower := strings.ToLower(word)
		for _, name := range names {
			if lower == name {
				return true
			}
		}
	}
	return false
}
