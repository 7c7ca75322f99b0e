package workflow

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// abbreviations never end a sentence when followed by a period.
var abbreviations = []string{"Mr", "Mrs", "Ms", "Dr", "Prof", "Rev", "Capt", "Lt", "Col", "Maj"}

// SplitSentences splits a paragraph at '.', '!' or '?' followed by
// whitespace. A period after a title abbreviation ("Dr. Smith") or a
// terminator directly followed by a digit ("3.14") does not split. Closing
// quotes and brackets after a terminator stay with their sentence.
func SplitSentences(p string) []string {
	var out []string
	start := 0
	for i := 0; i < len(p); i++ {
		if !isTerminator(p[i]) {
			continue
		}
		if i+1 < len(p) && isDigit(p[i+1]) {
			continue
		}
		if p[i] == '.' && endsWithAbbreviation(p[start:i]) {
			continue
		}

		end := i + 1
		for end < len(p) && isTerminator(p[end]) {
			end++
		}
		for end < len(p) {
			r, size := utf8.DecodeRuneInString(p[end:])
			if !isCloser(r) {
				break
			}
			end += size
		}
		if end < len(p) {
			r, _ := utf8.DecodeRuneInString(p[end:])
			if !unicode.IsSpace(r) {
				i = end - 1
				continue
			}
		}

		if s := strings.TrimSpace(p[start:end]); s != "" {
			out = append(out, s)
		}
		start = end
		i = end - 1
	}
	if s := strings.TrimSpace(p[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// JoinSentences reassembles sentences into a paragraph with single spaces.
func JoinSentences(sentences []string) string {
	kept := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, " ")
}

func endsWithAbbreviation(text string) bool {
	start := len(text)
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if !unicode.IsLetter(r) {
			break
		}
		start -= size
	}
	return slices.Contains(abbreviations, text[start:])
}

func isTerminator(b byte) bool { return b == '.' || b == '!' || b == '?' }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '»':
		return true
	}
	return false
}
