package domain

import (
	"time"

	"github.com/aretw0/quill/pkg/schema"
)

// StepPayload is the data saved by one wizard step.
// The concrete type determines which step it belongs to.
type StepPayload interface {
	Step() Step
}

// PlanStep holds the free-form planning answers of step 1.
type PlanStep struct {
	Goal      string `json:"goal"`
	Workspace string `json:"workspace"`
	Time      string `json:"time"`
}

func (*PlanStep) Step() Step { return StepPlan }

// BrainstormStep holds loose ideas collected before research.
type BrainstormStep struct {
	Ideas []string `json:"ideas"`
	Notes string   `json:"notes"`
}

func (*BrainstormStep) Step() Step { return StepBrainstorm }

// Reading is one source consulted during research.
type Reading struct {
	Title string `json:"title"`
	Notes string `json:"notes"`
}

// ResearchStep holds the topics and readings of step 3.
type ResearchStep struct {
	Topics   []string  `json:"topics"`
	Readings []Reading `json:"readings"`
}

func (*ResearchStep) Step() Step { return StepResearch }

// OutlineStep holds the ordered topic sentences, one per intended paragraph.
type OutlineStep struct {
	OutlineSentences []string `json:"outlineSentences"`
}

func (*OutlineStep) Step() Step { return StepOutline }

// DraftStep holds the essay body. Paragraphs[i] starts out as the expansion of
// OutlineSentences[i]; from step 5 on it is the single source of body text.
type DraftStep struct {
	Paragraphs []string `json:"paragraphs"`
}

func (*DraftStep) Step() Step { return StepDraft }

// Edit actions recorded in the refine history.
const (
	EditActionEdit   = "edit"
	EditActionDelete = "delete"
	EditActionMove   = "move"
)

// EditEntry records one sentence-level change. An empty NewSentence encodes a deletion.
type EditEntry struct {
	ParagraphIndex   int       `json:"paragraphIndex"`
	OriginalSentence string    `json:"originalSentence"`
	NewSentence      string    `json:"newSentence"`
	Timestamp        time.Time `json:"timestamp"`
	Action           string    `json:"action,omitempty"`
}

// IsDeletion reports whether the entry removed a sentence.
func (e EditEntry) IsDeletion() bool {
	return e.NewSentence == ""
}

// RefineStep holds the append-only sentence edit log of step 6.
type RefineStep struct {
	EditHistory []EditEntry `json:"editHistory"`
}

func (*RefineStep) Step() Step { return StepRefine }

// ReorderStep records ParagraphOrder[position] = original paragraph index.
type ReorderStep struct {
	ParagraphOrder []int `json:"paragraphOrder"`
}

func (*ReorderStep) Step() Step { return StepReorder }

// ReviewStep holds the self-review checklist of step 8.
type ReviewStep struct {
	Checklist map[string]bool `json:"checklist"`
	Notes     string          `json:"notes"`
}

func (*ReviewStep) Step() Step { return StepReview }

// FormattingChecks are cosmetic flags shown by the read-only view.
type FormattingChecks struct {
	DoubleSpaced     bool `json:"doubleSpaced"`
	TitlePage        bool `json:"titlePage"`
	CitationsChecked bool `json:"citationsChecked"`
}

// FinalizeStep holds the bibliography and formatting checks of step 9.
type FinalizeStep struct {
	// Bibliography is newline-separated entries.
	Bibliography     string           `json:"bibliography"`
	FormattingChecks FormattingChecks `json:"formattingChecks"`
}

func (*FinalizeStep) Step() Step { return StepFinalize }

// newPayload returns an empty payload of the type owned by s.
func newPayload(s Step) StepPayload {
	switch s {
	case StepPlan:
		return &PlanStep{}
	case StepBrainstorm:
		return &BrainstormStep{}
	case StepResearch:
		return &ResearchStep{}
	case StepOutline:
		return &OutlineStep{}
	case StepDraft:
		return &DraftStep{}
	case StepRefine:
		return &RefineStep{}
	case StepReorder:
		return &ReorderStep{}
	case StepReview:
		return &ReviewStep{}
	case StepFinalize:
		return &FinalizeStep{}
	}
	return nil
}

var stringList = schema.Optional(schema.Slice(schema.String()))

// payloadSchemas describe the JSON shape every persisted step object must have.
var payloadSchemas = map[Step]schema.Schema{
	StepPlan: {
		"goal":      schema.Optional(schema.String()),
		"workspace": schema.Optional(schema.String()),
		"time":      schema.Optional(schema.String()),
	},
	StepBrainstorm: {
		"ideas": stringList,
		"notes": schema.Optional(schema.String()),
	},
	StepResearch: {
		"topics": stringList,
		"readings": schema.Optional(schema.Slice(schema.Object(schema.Schema{
			"title": schema.String(),
			"notes": schema.Optional(schema.String()),
		}))),
	},
	StepOutline: {
		"outlineSentences": stringList,
	},
	StepDraft: {
		"paragraphs": stringList,
	},
	StepRefine: {
		"editHistory": schema.Optional(schema.Slice(schema.Object(schema.Schema{
			"paragraphIndex":   schema.Int(),
			"originalSentence": schema.String(),
			"newSentence":      schema.String(),
			"timestamp":        schema.Optional(schema.String()),
			"action":           schema.Optional(schema.String()),
		}))),
	},
	StepReorder: {
		"paragraphOrder": schema.Optional(schema.Slice(schema.Int())),
	},
	StepReview: {
		"checklist": schema.Optional(schema.Map(schema.Bool())),
		"notes":     schema.Optional(schema.String()),
	},
	StepFinalize: {
		"bibliography": schema.Optional(schema.String()),
		"formattingChecks": schema.Optional(schema.Object(schema.Schema{
			"doubleSpaced":     schema.Optional(schema.Bool()),
			"titlePage":        schema.Optional(schema.Bool()),
			"citationsChecked": schema.Optional(schema.Bool()),
		})),
	},
}

// PayloadSchema returns the schema persisted step objects are checked against.
func PayloadSchema(s Step) schema.Schema {
	return payloadSchemas[s]
}
