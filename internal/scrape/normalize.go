package scrape

import (
	"regexp"
	"strings"
)

var (
	codePattern = regexp.MustCompile(`^[A-Z0-9]{4,20}$`)
	spaceRun    = regexp.MustCompile(`[\n\t\r\s\xA0]+`)
)

// Normalize trims and upper-cases raw cell text. Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidCode reports whether an already normalized code is plain alphanumeric and 4-20 characters long.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// cleanText collapses runs of whitespace, including non-breaking spaces, and trims the result.
func cleanText(text string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
}
