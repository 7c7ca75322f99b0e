package workflow

import "github.com/aretw0/quill/pkg/domain"

// StepInfo describes a wizard step for display.
type StepInfo struct {
	Step    domain.Step `json:"step"`
	Name    string      `json:"name"`
	Title   string      `json:"title"`
	Summary string      `json:"summary"`
}

var stepTable = []StepInfo{
	{domain.StepPlan, "plan", "Plan", "Set a goal, a place to work and a time budget."},
	{domain.StepBrainstorm, "brainstorm", "Brainstorm", "Collect loose ideas before committing to any."},
	{domain.StepResearch, "research", "Research", "List topics and take notes on readings."},
	{domain.StepOutline, "outline", "Outline", "Write one topic sentence per paragraph."},
	{domain.StepDraft, "draft", "Draft", "Expand every topic sentence into a paragraph."},
	{domain.StepRefine, "refine", "Refine", "Rewrite, delete or move individual sentences."},
	{domain.StepReorder, "reorder", "Reorder", "Put the paragraphs in their final order."},
	{domain.StepReview, "review", "Review", "Check the essay against a short checklist."},
	{domain.StepFinalize, "finalize", "Finalize", "Add the bibliography and confirm formatting."},
}

// Table returns the description of every step in wizard order.
func Table() []StepInfo {
	return append([]StepInfo(nil), stepTable...)
}

// Describe returns the description of step s.
func Describe(s domain.Step) (StepInfo, bool) {
	if !s.Valid() {
		return StepInfo{}, false
	}
	return stepTable[int(s)-1], true
}
