package render

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SanitizeTitle turns an arbitrary video title into a safe filename
// fragment: diacritics stripped, anything outside letters and digits
// collapsed to single underscores, capped at 50 runes.
func SanitizeTitle(title string) string {
	stripper := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(stripper, title); err == nil {
		title = stripped
	}

	var b strings.Builder
	lastUnderscore := true
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		out = "clip"
	}
	if r := []rune(out); len(r) > titleFragmentRune {
		out = strings.Trim(string(r[:titleFragmentRune]), "_")
	}
	return out
}
