package metrics

import (
	"strings"
	"unicode/utf8"
)

// Features holds local size features of a message or reply. Only counts are
// kept so they can be recorded without the underlying text.
type Features struct {
	Bytes         int
	Runes         int
	Words         int
	Lines         int
	NonBlankLines int
}

// CountFeatures computes byte, rune, word and line counts for s.
func CountFeatures(s string) Features {
	return Features{
		Bytes:         len(s),
		Runes:         utf8.RuneCountInString(s),
		Words:         len(strings.Fields(s)),
		Lines:         countLines(s),
		NonBlankLines: countNonBlankLines(s),
	}
}

// countLines returns 0 for empty strings; otherwise 1 plus the number of '\n' runes.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return 1 + strings.Count(s, "\n")
}

func countNonBlankLines(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
