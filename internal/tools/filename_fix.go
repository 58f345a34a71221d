package tools

import (
	"strings"
	"unicode"
)

// FilenameFix sanitizes an attachment filename for use in a
// Content-Disposition header:
// - Removes non-ASCII characters
// - Strips any path component
// - Replaces control characters and quotes with underscores
// - Keeps case, dots, hyphens and spaces intact
func FilenameFix(input string) string {
	// Drop any directory prefix, forward or backward slashes
	if idx := strings.LastIndexAny(input, "/\\"); idx >= 0 {
		input = input[idx+1:]
	}

	// Make ASCII only
	var asciiOnly strings.Builder
	for _, r := range input {
		if r <= unicode.MaxASCII {
			asciiOnly.WriteRune(r)
		}
	}

	// Replace characters that would break or escape the header value
	var result strings.Builder
	for _, r := range asciiOnly.String() {
		if unicode.IsControl(r) || r == '"' {
			result.WriteRune('_')
		} else {
			result.WriteRune(r)
		}
	}

	name := strings.TrimSpace(result.String())
	if name == "" {
		return "attachment"
	}
	return name
}
