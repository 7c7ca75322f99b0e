package workflow_test

import (
	"strings"
	"testing"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/workflow"
	"github.com/stretchr/testify/assert"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func newDoc() *domain.EssayData {
	return domain.NewEssayData(domain.Essay{ID: "e1", Title: "Test", CurrentStep: domain.StepPlan})
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, workflow.WordCount("   "))
	assert.Equal(t, 3, workflow.WordCount("  one\ttwo\n three "))
}

func TestHasPrerequisites(t *testing.T) {
	d := newDoc()
	for _, s := range []domain.Step{1, 2, 3, 4} {
		assert.True(t, workflow.HasPrerequisites(d, s), s.String())
	}
	for _, s := range []domain.Step{5, 6, 7, 8, 9} {
		assert.False(t, workflow.HasPrerequisites(d, s), s.String())
	}
	assert.False(t, workflow.HasPrerequisites(d, 0))

	d.SetPayload(&domain.OutlineStep{OutlineSentences: []string{" "}})
	assert.False(t, workflow.HasPrerequisites(d, domain.StepDraft))
	d.Outline().OutlineSentences = []string{"A is true."}
	assert.True(t, workflow.HasPrerequisites(d, domain.StepDraft))

	d.SetPayload(&domain.DraftStep{Paragraphs: []string{"A is true."}})
	for _, s := range []domain.Step{6, 7, 8, 9} {
		assert.True(t, workflow.HasPrerequisites(d, s), s.String())
	}
}

func TestCanAdvance_Gates(t *testing.T) {
	d := newDoc()

	assert.True(t, workflow.CanAdvance(d, domain.StepPlan))
	d.Essay.Title = "  "
	assert.False(t, workflow.CanAdvance(d, domain.StepPlan))

	assert.False(t, workflow.CanAdvance(d, domain.StepOutline))
	d.SetPayload(&domain.OutlineStep{OutlineSentences: []string{"", "A."}})
	assert.True(t, workflow.CanAdvance(d, domain.StepOutline))

	assert.False(t, workflow.CanAdvance(d, domain.StepRefine))
	d.SetPayload(&domain.RefineStep{EditHistory: make([]domain.EditEntry, 2)})
	assert.False(t, workflow.CanAdvance(d, domain.StepRefine))
	d.Refine().EditHistory = make([]domain.EditEntry, 3)
	assert.True(t, workflow.CanAdvance(d, domain.StepRefine))

	for _, s := range []domain.Step{2, 3, 7, 8, 9} {
		assert.True(t, workflow.CanAdvance(d, s), s.String())
	}
	assert.False(t, workflow.CanAdvance(d, 10))
	assert.False(t, workflow.CanAdvance(nil, domain.StepPlan))
}

func TestCanAdvance_DraftRatio(t *testing.T) {
	d := newDoc()
	assert.False(t, workflow.CanAdvance(d, domain.StepDraft), "nothing to draft")

	d.SetPayload(&domain.DraftStep{Paragraphs: []string{words(60), words(60), ""}})
	assert.True(t, workflow.CanAdvance(d, domain.StepDraft))

	d.Draft().Paragraphs = []string{words(60), words(49), ""}
	assert.False(t, workflow.CanAdvance(d, domain.StepDraft))

	// The outline sets the denominator when present.
	d.SetPayload(&domain.OutlineStep{OutlineSentences: []string{"A.", "B."}})
	assert.True(t, workflow.CanAdvance(d, domain.StepDraft))

	d.Outline().OutlineSentences = []string{"A.", "B.", "C.", "D."}
	d.Draft().Paragraphs = []string{words(50), "", "", ""}
	assert.False(t, workflow.CanAdvance(d, domain.StepDraft))
	d.Draft().Paragraphs[3] = words(50)
	assert.True(t, workflow.CanAdvance(d, domain.StepDraft))
}

func TestDrafted_CountsOnlyMatchingParagraphs(t *testing.T) {
	d := newDoc()
	d.SetPayload(&domain.OutlineStep{OutlineSentences: []string{"A.", "B."}})
	d.SetPayload(&domain.DraftStep{Paragraphs: []string{"A.", "B.", words(60), words(60)}})

	drafted, total := workflow.DefaultThresholds().Drafted(d)
	assert.Equal(t, 0, drafted)
	assert.Equal(t, 2, total)
	assert.False(t, workflow.CanAdvance(d, domain.StepDraft))

	// A blank outline row expects nothing at its index.
	d.Outline().OutlineSentences = []string{"A.", "", "C."}
	d.Draft().Paragraphs = []string{words(60), words(60), "C."}
	drafted, total = workflow.DefaultThresholds().Drafted(d)
	assert.Equal(t, 1, drafted)
	assert.Equal(t, 2, total)
}

func TestThresholds_Configurable(t *testing.T) {
	d := newDoc()
	d.SetPayload(&domain.DraftStep{Paragraphs: []string{words(10), words(10)}})
	d.SetPayload(&domain.RefineStep{EditHistory: make([]domain.EditEntry, 1)})

	strict := workflow.DefaultThresholds()
	assert.False(t, strict.CanAdvance(d, domain.StepDraft))

	loose := workflow.Thresholds{MinParagraphWords: 10, MinDraftedRatio: 1, MinEdits: 1}
	assert.True(t, loose.CanAdvance(d, domain.StepDraft))
	assert.True(t, loose.CanAdvance(d, domain.StepRefine))

	drafted, total := loose.Drafted(d)
	assert.Equal(t, 2, drafted)
	assert.Equal(t, 2, total)
}

func TestDescribe(t *testing.T) {
	info, ok := workflow.Describe(domain.StepReorder)
	assert.True(t, ok)
	assert.Equal(t, "reorder", info.Name)

	_, ok = workflow.Describe(0)
	assert.False(t, ok)
	assert.Len(t, workflow.Table(), 9)
	for i, info := range workflow.Table() {
		assert.Equal(t, domain.Step(i+1), info.Step)
		assert.Equal(t, info.Step.String(), info.Name)
	}
}
