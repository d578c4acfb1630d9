package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeName collapses whitespace in a free-text customer or vehicle name.
func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeLocation collapses whitespace in a pickup or drop-off address.
func NormalizeLocation(location string) string {
	return TrimAndNormalize(location)
}

// NormalizeEmail trims and lowercases an e-mail address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
