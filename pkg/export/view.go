// Package export composes the read-only view of an essay and renders it as
// Markdown for files and terminals.
package export

import (
	"strings"
	"time"

	"github.com/aretw0/quill/pkg/domain"
)

// View is the finished essay as a reader sees it. Paragraphs come from the
// draft in their stored order, which the reorder step keeps current.
type View struct {
	ID           string
	Title        string
	Paragraphs   []string
	Bibliography []string
	Checks       domain.FormattingChecks
	Completed    bool
	Step         domain.Step
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Compose builds the View of d. Blank paragraphs and bibliography lines are
// left out.
func Compose(d *domain.EssayData) View {
	v := View{
		ID:        d.Essay.ID,
		Title:     strings.TrimSpace(d.Essay.Title),
		Completed: d.Essay.IsCompleted,
		Step:      d.Essay.CurrentStep,
		CreatedAt: d.Essay.CreatedAt,
		UpdatedAt: d.Essay.LastUpdatedAt,
	}
	if v.Title == "" {
		v.Title = domain.DefaultTitle
	}
	if draft := d.Draft(); draft != nil {
		for _, p := range draft.Paragraphs {
			if p = strings.TrimSpace(p); p != "" {
				v.Paragraphs = append(v.Paragraphs, p)
			}
		}
	}
	if fin := d.Finalize(); fin != nil {
		v.Checks = fin.FormattingChecks
		for _, line := range strings.Split(fin.Bibliography, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				v.Bibliography = append(v.Bibliography, line)
			}
		}
	}
	return v
}

// WordCount counts the words of the essay body.
func (v View) WordCount() int {
	n := 0
	for _, p := range v.Paragraphs {
		n += len(strings.Fields(p))
	}
	return n
}
