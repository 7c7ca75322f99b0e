package workflow

import "github.com/aretw0/quill/pkg/domain"

// Status summarizes where an essay stands in the wizard.
type Status struct {
	Essay            domain.Essay  `json:"essay"`
	Step             StepInfo      `json:"step"`
	HasPrerequisites bool          `json:"hasPrerequisites"`
	CanAdvance       bool          `json:"canAdvance"`
	Drafted          int           `json:"drafted"`
	Expected         int           `json:"expected"`
	Edits            int           `json:"edits"`
	Visited          []domain.Step `json:"visited"`
	Thresholds       Thresholds    `json:"thresholds"`
}

// Report builds the Status of d under t.
func (t Thresholds) Report(d *domain.EssayData) Status {
	current := d.Essay.CurrentStep
	drafted, expected := t.Drafted(d)
	info, _ := Describe(current)
	st := Status{
		Essay:            d.Essay,
		Step:             info,
		HasPrerequisites: HasPrerequisites(d, current),
		CanAdvance:       t.CanAdvance(d, current),
		Drafted:          drafted,
		Expected:         expected,
		Visited:          d.VisitedSteps(),
		Thresholds:       t,
	}
	if refine := d.Refine(); refine != nil {
		st.Edits = len(refine.EditHistory)
	}
	if st.Visited == nil {
		st.Visited = []domain.Step{}
	}
	return st
}
