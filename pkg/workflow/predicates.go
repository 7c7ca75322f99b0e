package workflow

import (
	"strings"

	"github.com/aretw0/quill/pkg/domain"
)

// Thresholds are the completion gates of the draft and refine steps.
type Thresholds struct {
	// MinParagraphWords is the word count at which a paragraph counts as drafted.
	MinParagraphWords int `json:"minParagraphWords" mapstructure:"min_paragraph_words"`
	// MinDraftedRatio is the share of outline sentences that need a drafted paragraph.
	MinDraftedRatio float64 `json:"minDraftedRatio" mapstructure:"min_drafted_ratio"`
	// MinEdits is the number of edit history entries needed to leave step 6.
	MinEdits int `json:"minEdits" mapstructure:"min_edits"`
}

// DefaultThresholds returns the stock gates: 50 words, half the outline, 3 edits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinParagraphWords: 50,
		MinDraftedRatio:   0.5,
		MinEdits:          3,
	}
}

// WordCount counts the whitespace-separated tokens of s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// HasPrerequisites reports whether the data step s builds on exists.
func HasPrerequisites(d *domain.EssayData, s domain.Step) bool {
	switch {
	case !s.Valid():
		return false
	case s < domain.StepDraft:
		return true
	case s == domain.StepDraft:
		return outlineCount(d) > 0
	default:
		draft := d.Draft()
		return draft != nil && len(draft.Paragraphs) > 0
	}
}

// CanAdvance reports whether the user may move past step s using the default thresholds.
func CanAdvance(d *domain.EssayData, s domain.Step) bool {
	return DefaultThresholds().CanAdvance(d, s)
}

// CanAdvance reports whether the user may move past step s.
func (t Thresholds) CanAdvance(d *domain.EssayData, s domain.Step) bool {
	if d == nil || !s.Valid() {
		return false
	}
	switch s {
	case domain.StepPlan:
		return strings.TrimSpace(d.Essay.Title) != ""
	case domain.StepOutline:
		return outlineCount(d) > 0
	case domain.StepDraft:
		drafted, total := t.Drafted(d)
		return total > 0 && float64(drafted) >= t.MinDraftedRatio*float64(total)
	case domain.StepRefine:
		refine := d.Refine()
		return refine != nil && len(refine.EditHistory) >= t.MinEdits
	}
	return true
}

// Drafted returns how many paragraphs are long enough to count as drafted,
// out of how many are expected. Each non-blank outline sentence expects the
// paragraph at its own index. Without an outline every paragraph is expected.
func (t Thresholds) Drafted(d *domain.EssayData) (drafted, total int) {
	var paragraphs []string
	if draft := d.Draft(); draft != nil {
		paragraphs = draft.Paragraphs
	}
	if outlineCount(d) == 0 {
		for _, p := range paragraphs {
			if WordCount(p) >= t.MinParagraphWords {
				drafted++
			}
		}
		return drafted, len(paragraphs)
	}
	for i, s := range d.Outline().OutlineSentences {
		if strings.TrimSpace(s) == "" {
			continue
		}
		total++
		if i < len(paragraphs) && WordCount(paragraphs[i]) >= t.MinParagraphWords {
			drafted++
		}
	}
	return drafted, total
}

func outlineCount(d *domain.EssayData) int {
	outline := d.Outline()
	if outline == nil {
		return 0
	}
	return len(domain.NonBlank(outline.OutlineSentences))
}
