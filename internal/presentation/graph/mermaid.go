// Package graph draws the step wizard as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/workflow"
)

// Overlay marks the progress of one essay on the chart.
type Overlay struct {
	Visited   []domain.Step
	Current   domain.Step
	Completed bool
}

// OverlayFor returns the overlay of d.
func OverlayFor(d *domain.EssayData) *Overlay {
	return &Overlay{
		Visited:   d.VisitedSteps(),
		Current:   d.Essay.CurrentStep,
		Completed: d.Essay.IsCompleted,
	}
}

// gates labels the transitions that have a completion check.
func gates(t workflow.Thresholds) map[domain.Step]string {
	return map[domain.Step]string{
		domain.StepPlan:    "title set",
		domain.StepOutline: "1+ topic sentence",
		domain.StepDraft:   fmt.Sprintf("%.0f%% drafted, %d+ words", t.MinDraftedRatio*100, t.MinParagraphWords),
		domain.StepRefine:  fmt.Sprintf("%d+ edits", t.MinEdits),
	}
}

// GenerateMermaid produces the flowchart of the wizard. Gated transitions
// carry their condition as a label; overlay styles are applied when given.
func GenerateMermaid(t workflow.Thresholds, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	labels := gates(t)
	for _, info := range workflow.Table() {
		id := nodeID(info.Step)
		fmt.Fprintf(&sb, "    %s[\"%d. %s\"]\n", id, int(info.Step), info.Title)

		if info.Step == domain.LastStep {
			sb.WriteString("    done((\"completed\"))\n")
			fmt.Fprintf(&sb, "    %s --> done\n", id)
			continue
		}
		next := nodeID(info.Step + 1)
		if label, ok := labels[info.Step]; ok {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", id, strings.ReplaceAll(label, "\"", "'"), next)
		} else {
			fmt.Fprintf(&sb, "    %s --> %s\n", id, next)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[domain.Step]bool)
		for _, s := range overlay.Visited {
			if !s.Valid() || seen[s] || s == overlay.Current {
				continue
			}
			seen[s] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", nodeID(s))
		}
		if overlay.Current.Valid() {
			fmt.Fprintf(&sb, "    class %s current;\n", nodeID(overlay.Current))
		}
		if overlay.Completed {
			sb.WriteString("    class done visited;\n")
		}
	}
	return sb.String()
}

func nodeID(s domain.Step) string {
	return "step" + fmt.Sprint(int(s)) + "_" + s.String()
}
