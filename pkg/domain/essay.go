package domain

import (
	"fmt"
	"time"
)

// DefaultTitle is used when an essay is created without a title.
const DefaultTitle = "Untitled Essay"

// Step identifies one of the nine wizard steps.
type Step int

const (
	StepPlan       Step = 1
	StepBrainstorm Step = 2
	StepResearch   Step = 3
	StepOutline    Step = 4
	StepDraft      Step = 5
	StepRefine     Step = 6
	StepReorder    Step = 7
	StepReview     Step = 8
	StepFinalize   Step = 9
)

// FirstStep and LastStep bound the wizard.
const (
	FirstStep = StepPlan
	LastStep  = StepFinalize
)

var stepNames = map[Step]string{
	StepPlan:       "plan",
	StepBrainstorm: "brainstorm",
	StepResearch:   "research",
	StepOutline:    "outline",
	StepDraft:      "draft",
	StepRefine:     "refine",
	StepReorder:    "reorder",
	StepReview:     "review",
	StepFinalize:   "finalize",
}

// Valid reports whether s is within 1..9.
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Key returns the JSON field name of the step payload ("step1".."step9").
func (s Step) Key() string {
	return fmt.Sprintf("step%d", int(s))
}

// Steps returns all steps in wizard order.
func Steps() []Step {
	out := make([]Step, 0, int(LastStep))
	for s := FirstStep; s <= LastStep; s++ {
		out = append(out, s)
	}
	return out
}

// Essay is the root metadata of a document.
type Essay struct {
	// ID is generated at creation and never changes.
	ID    string `json:"id"`
	Title string `json:"title"`

	// CurrentStep moves only through explicit navigation; it is not forced to increase.
	CurrentStep Step `json:"currentStep"`

	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`

	// IsCompleted latches to true on the finalize action and is never reset.
	IsCompleted bool `json:"isCompleted"`
}
