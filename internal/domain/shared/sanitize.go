package shared

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxTextLength caps free-text fields such as notes and descriptions
const MaxTextLength = 500

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// SanitizeText strips markup, normalizes to NFC, trims and caps s at
// MaxTextLength runes.
func SanitizeText(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = norm.NFC.String(s)
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > MaxTextLength {
		s = strings.TrimSpace(string(r[:MaxTextLength]))
	}
	return s
}
