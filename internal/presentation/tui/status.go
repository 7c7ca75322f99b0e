package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/workflow"
	"github.com/muesli/termenv"
)

const (
	colorDone    = "#22c55e"
	colorCurrent = "#facc15"
	colorBlocked = "#f87171"
)

// PrintStatus writes the wizard progress of an essay, one line per step.
func PrintStatus(w io.Writer, st workflow.Status) {
	out := termenv.NewOutput(w)

	title := out.String(st.Essay.Title).Bold()
	fmt.Fprintf(w, "%s  (%s)\n", title, st.Essay.ID)
	if st.Essay.IsCompleted {
		fmt.Fprintln(w, out.String("completed").Foreground(out.Color(colorDone)))
	}

	visited := make(map[domain.Step]bool, len(st.Visited))
	for _, s := range st.Visited {
		visited[s] = true
	}

	for _, info := range workflow.Table() {
		marker, color := " ", ""
		switch {
		case info.Step == st.Step.Step:
			marker, color = ">", colorCurrent
		case visited[info.Step]:
			marker, color = "*", colorDone
		}
		line := fmt.Sprintf("%s %d. %-10s %s", marker, int(info.Step), info.Title, info.Summary)
		if color != "" {
			fmt.Fprintln(w, out.String(line).Foreground(out.Color(color)))
		} else {
			fmt.Fprintln(w, line)
		}
	}

	fmt.Fprintln(w)
	switch {
	case !st.HasPrerequisites:
		fmt.Fprintln(w, out.String("earlier steps are missing").Foreground(out.Color(colorBlocked)))
	case st.CanAdvance:
		fmt.Fprintln(w, out.String("ready to advance").Foreground(out.Color(colorDone)))
	default:
		fmt.Fprintln(w, out.String("step is not complete").Foreground(out.Color(colorBlocked)))
	}

	switch st.Step.Step {
	case domain.StepDraft:
		fmt.Fprintf(w, "drafted %d of %d paragraphs (%d+ words each)\n", st.Drafted, st.Expected, st.Thresholds.MinParagraphWords)
	case domain.StepRefine:
		fmt.Fprintf(w, "%d of %d edits\n", st.Edits, st.Thresholds.MinEdits)
	}
}

// PrintEssays writes one line per essay, marking the active one.
func PrintEssays(w io.Writer, essays []domain.Essay, active string) {
	out := termenv.NewOutput(w)
	if len(essays) == 0 {
		fmt.Fprintln(w, "no essays")
		return
	}
	for _, e := range essays {
		marker := " "
		if e.ID == active {
			marker = "*"
		}
		state := e.CurrentStep.String()
		if e.IsCompleted {
			state = "completed"
		}
		line := fmt.Sprintf("%s %-24s %-10s %s  %s", marker, e.ID, state, e.LastUpdatedAt.Local().Format("2006-01-02 15:04"), e.Title)
		if e.ID == active {
			fmt.Fprintln(w, out.String(line).Bold())
		} else {
			fmt.Fprintln(w, line)
		}
	}
}
