package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/quill/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *EssayData {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	d := NewEssayData(Essay{
		ID:            "m1abc-1234abcd",
		Title:         "On Bridges",
		CurrentStep:   StepRefine,
		CreatedAt:     created,
		LastUpdatedAt: created.Add(time.Hour),
	})
	d.SetPayload(&PlanStep{Goal: "pass", Workspace: "library", Time: "2h"})
	d.SetPayload(&ResearchStep{
		Topics:   []string{"engineering"},
		Readings: []Reading{{Title: "Spans", Notes: "ch. 2"}, {Title: "", Notes: "stray"}},
	})
	d.SetPayload(&OutlineStep{OutlineSentences: []string{"Bridges matter.", "  ", "They fail."}})
	d.SetPayload(&DraftStep{Paragraphs: []string{"Bridges matter. A lot.", "They fail."}})
	d.SetPayload(&RefineStep{EditHistory: []EditEntry{{
		ParagraphIndex:   0,
		OriginalSentence: "A lot.",
		NewSentence:      "",
		Timestamp:        created.Add(2 * time.Hour),
		Action:           EditActionDelete,
	}}})
	d.SetPayload(&ReorderStep{ParagraphOrder: []int{1, 0}})
	d.SetPayload(&ReviewStep{Checklist: map[string]bool{"thesis": true}})
	d.SetPayload(&FinalizeStep{
		Bibliography:     "Doe, J. Spans.\nRoe, R. Loads.",
		FormattingChecks: FormattingChecks{DoubleSpaced: true},
	})
	return d
}

func TestEssayData_JSONRoundTrip(t *testing.T) {
	original := sampleDocument()

	raw, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"step4":{"outlineSentences"`)
	assert.Contains(t, string(raw), `"currentStep":6`)

	var decoded EssayData
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, original.Essay.ID, decoded.Essay.ID)
	assert.True(t, original.Essay.LastUpdatedAt.Equal(decoded.Essay.LastUpdatedAt))
	assert.Equal(t, original.Outline(), decoded.Outline())
	assert.Equal(t, original.Draft(), decoded.Draft())
	assert.Equal(t, original.Reorder(), decoded.Reorder())
	assert.Equal(t, original.Review(), decoded.Review())
	assert.Equal(t, original.Finalize(), decoded.Finalize())

	require.NotNil(t, decoded.Refine())
	require.Len(t, decoded.Refine().EditHistory, 1)
	entry := decoded.Refine().EditHistory[0]
	assert.True(t, entry.IsDeletion())
	assert.True(t, entry.Timestamp.Equal(original.Refine().EditHistory[0].Timestamp))
	assert.Equal(t, []Step{StepPlan, StepResearch, StepOutline, StepDraft, StepRefine, StepReorder, StepReview, StepFinalize}, decoded.VisitedSteps())
}

func TestEssayData_UnvisitedStepsStayAbsent(t *testing.T) {
	raw := `{"essay":{"id":"x","title":"T","currentStep":1},"step4":null}`

	var d EssayData
	require.NoError(t, json.Unmarshal([]byte(raw), &d))

	assert.False(t, d.Visited(StepOutline))
	assert.Nil(t, d.Outline())
	assert.Empty(t, d.VisitedSteps())
}

func TestEssayData_RejectsMalformedPayload(t *testing.T) {
	raw := `{"essay":{"id":"x"},"step6":{"editHistory":[{"paragraphIndex":"first","originalSentence":"a","newSentence":"b"}]}}`

	var d EssayData
	err := json.Unmarshal([]byte(raw), &d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step6")
	assert.NotEmpty(t, schema.ValidationErrors(errors.Unwrap(err)))
}

func TestEssayData_RequiresEssayRecord(t *testing.T) {
	var d EssayData
	assert.Error(t, json.Unmarshal([]byte(`{"step1":{}}`), &d))
}

func TestEssayData_PruneLeavesOriginalUntouched(t *testing.T) {
	d := sampleDocument()

	pruned := d.Prune()

	assert.Equal(t, []string{"Bridges matter.", "They fail."}, pruned.Outline().OutlineSentences)
	assert.Equal(t, []Reading{{Title: "Spans", Notes: "ch. 2"}}, pruned.Research().Readings)

	// The editing copy keeps its blank rows.
	assert.Len(t, d.Outline().OutlineSentences, 3)
	assert.Len(t, d.Research().Readings, 2)
}

func TestEssayData_PruneKeepsParagraphsAligned(t *testing.T) {
	d := NewEssayData(Essay{ID: "x"})
	d.SetPayload(&OutlineStep{OutlineSentences: []string{"A.", "", "C.", " "}})
	d.SetPayload(&DraftStep{Paragraphs: []string{"A. text", "", "C. text", "Kept."}})
	d.SetPayload(&ReorderStep{ParagraphOrder: []int{2, 1, 0, 3}})

	pruned := d.Prune()

	assert.Equal(t, []string{"A.", "C."}, pruned.Outline().OutlineSentences)
	assert.Equal(t, []string{"A. text", "C. text", "Kept."}, pruned.Draft().Paragraphs)
	assert.Equal(t, []int{1, 0, 2}, pruned.Reorder().ParagraphOrder)
	assert.Len(t, d.Draft().Paragraphs, 4)
}

func TestEssayData_CloneIsDeep(t *testing.T) {
	d := sampleDocument()
	c := d.Clone()

	c.Draft().Paragraphs[0] = "changed"
	c.Reorder().ParagraphOrder[0] = 0
	c.Review().Checklist["thesis"] = false

	assert.Equal(t, "Bridges matter. A lot.", d.Draft().Paragraphs[0])
	assert.Equal(t, 1, d.Reorder().ParagraphOrder[0])
	assert.True(t, d.Review().Checklist["thesis"])
}

func TestEssayData_EnsureCreatesOnce(t *testing.T) {
	d := NewEssayData(Essay{ID: "x"})
	assert.Nil(t, d.Draft())

	draft := d.EnsureDraft()
	draft.Paragraphs = append(draft.Paragraphs, "p")

	assert.Same(t, draft, d.EnsureDraft())
	assert.Equal(t, []string{"p"}, d.Draft().Paragraphs)

	var nilDoc *EssayData
	assert.Nil(t, nilDoc.EnsureOutline())
	assert.Nil(t, nilDoc.Outline())
}

func TestStep(t *testing.T) {
	assert.True(t, StepFinalize.Valid())
	assert.False(t, Step(0).Valid())
	assert.False(t, Step(10).Valid())
	assert.Equal(t, "step7", StepReorder.Key())
	assert.Equal(t, "outline", StepOutline.String())
	assert.Len(t, Steps(), 9)
}

func TestErrors_Categories(t *testing.T) {
	storageErr := &StorageError{Op: "set", Key: "essay_x", Err: ErrQuotaExceeded}
	assert.ErrorIs(t, storageErr, ErrStorage)
	assert.ErrorIs(t, storageErr, ErrQuotaExceeded)

	suggestionErr := &SuggestionError{Message: "upstream unavailable"}
	assert.ErrorIs(t, suggestionErr, ErrSuggestion)
	assert.Equal(t, "suggestion: upstream unavailable", suggestionErr.Error())
}
