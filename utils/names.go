package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeName keeps letters, digits, space, hyphen and underscore and trims
// the result. Input is NFC-normalized first so decomposed file names from
// macOS volumes keep their accented letters.
func SanitizeName(name string) string {
	name = norm.NFC.String(name)
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

// TruncateRunes cuts s to at most max runes
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
