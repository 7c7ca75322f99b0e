package workflow

import (
	"slices"
	"strings"

	"github.com/aretw0/quill/pkg/domain"
)

// ExpandMarker is appended to a topic sentence to form a placeholder paragraph.
const ExpandMarker = "[Expand on this point further...]"

// Placeholder returns the stub paragraph seeded for an outline sentence.
func Placeholder(sentence string) string {
	return strings.TrimSpace(sentence) + " " + ExpandMarker
}

// FirstSentence returns the leading run of p up to the first '.', '!' or '?'
// that is followed by whitespace or the end of the text. It returns "" when p
// has no such terminator.
func FirstSentence(p string) string {
	for i := 0; i < len(p); i++ {
		if !isTerminator(p[i]) {
			continue
		}
		if i+1 == len(p) || isSpace(p[i+1]) {
			return p[:i+1]
		}
	}
	return ""
}

// SetOutlineSentence replaces outline sentence i and regenerates paragraph i
// to start with it. A blank sentence is stored but leaves the draft alone.
func SetOutlineSentence(d *domain.EssayData, i int, sentence string) bool {
	outline := d.Outline()
	if outline == nil || i < 0 || i >= len(outline.OutlineSentences) {
		return false
	}
	outline.OutlineSentences[i] = sentence
	if strings.TrimSpace(sentence) != "" {
		regenerateParagraph(d, i)
	}
	return true
}

// AddOutlineSentence appends a sentence to the outline, creating the outline
// if needed, and seeds the matching paragraph.
func AddOutlineSentence(d *domain.EssayData, sentence string) bool {
	outline := d.EnsureOutline()
	if outline == nil {
		return false
	}
	outline.OutlineSentences = append(outline.OutlineSentences, sentence)
	if strings.TrimSpace(sentence) != "" {
		regenerateParagraph(d, len(outline.OutlineSentences)-1)
	}
	return true
}

// RemoveOutlineSentence deletes outline sentence i. Paragraphs are kept: once
// drafted, step 5 is the source of truth for the essay body.
func RemoveOutlineSentence(d *domain.EssayData, i int) bool {
	outline := d.Outline()
	if outline == nil || i < 0 || i >= len(outline.OutlineSentences) {
		return false
	}
	outline.OutlineSentences = slices.Delete(outline.OutlineSentences, i, i+1)
	return true
}

// SeedParagraphs gives every non-blank outline sentence without a paragraph a
// placeholder paragraph. Existing text is never replaced.
func SeedParagraphs(d *domain.EssayData) bool {
	outline := d.Outline()
	if outline == nil {
		return false
	}
	changed := false
	for i, s := range outline.OutlineSentences {
		if strings.TrimSpace(s) == "" {
			continue
		}
		draft := d.Draft()
		if draft != nil && i < len(draft.Paragraphs) && strings.TrimSpace(draft.Paragraphs[i]) != "" {
			continue
		}
		regenerateParagraph(d, i)
		changed = true
	}
	return changed
}

// regenerateParagraph makes paragraph i start with outline sentence i.
// Missing paragraphs before i are filled with placeholders.
func regenerateParagraph(d *domain.EssayData, i int) {
	sentences := d.Outline().OutlineSentences
	draft := d.EnsureDraft()
	for j := len(draft.Paragraphs); j < i; j++ {
		draft.Paragraphs = append(draft.Paragraphs, stub(sentences[j]))
	}

	sentence := strings.TrimSpace(sentences[i])
	if i == len(draft.Paragraphs) {
		draft.Paragraphs = append(draft.Paragraphs, Placeholder(sentence))
		return
	}

	old := strings.TrimSpace(draft.Paragraphs[i])
	switch {
	case old == "":
		draft.Paragraphs[i] = Placeholder(sentence)
	case strings.HasPrefix(old, sentence):
	default:
		rest := strings.TrimSpace(strings.TrimPrefix(old, FirstSentence(old)))
		if rest == "" {
			draft.Paragraphs[i] = sentence
		} else {
			draft.Paragraphs[i] = sentence + " " + rest
		}
	}
}

func stub(sentence string) string {
	if strings.TrimSpace(sentence) == "" {
		return ""
	}
	return Placeholder(sentence)
}
