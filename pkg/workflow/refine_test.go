package workflow_test

import (
	"testing"
	"time"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func draftDoc(paragraphs ...string) *domain.EssayData {
	d := newDoc()
	d.SetPayload(&domain.DraftStep{Paragraphs: paragraphs})
	return d
}

func TestDeleteSentence(t *testing.T) {
	d := draftDoc("Intro.", "One. Two. Three.")

	require.True(t, workflow.DeleteSentence(d, 1, 1, at))
	assert.Equal(t, "One. Three.", d.Draft().Paragraphs[1])

	history := d.Refine().EditHistory
	require.Len(t, history, 1)
	assert.Equal(t, domain.EditEntry{
		ParagraphIndex:   1,
		OriginalSentence: "Two.",
		NewSentence:      "",
		Timestamp:        at,
		Action:           domain.EditActionDelete,
	}, history[0])
	assert.True(t, history[0].IsDeletion())
}

func TestEditSentence(t *testing.T) {
	d := draftDoc("One. Two.")

	require.True(t, workflow.EditSentence(d, 0, 0, "  Uno. ", at))
	assert.Equal(t, "Uno. Two.", d.Draft().Paragraphs[0])
	entry := d.Refine().EditHistory[0]
	assert.Equal(t, "One.", entry.OriginalSentence)
	assert.Equal(t, "Uno.", entry.NewSentence)
	assert.Equal(t, domain.EditActionEdit, entry.Action)

	assert.False(t, workflow.EditSentence(d, 0, 0, "Uno.", at), "unchanged text is not an edit")
	assert.Len(t, d.Refine().EditHistory, 1)

	require.True(t, workflow.EditSentence(d, 0, 1, "", at))
	assert.Equal(t, "Uno.", d.Draft().Paragraphs[0])
	assert.True(t, d.Refine().EditHistory[1].IsDeletion())
}

func TestMoveSentence(t *testing.T) {
	d := draftDoc("One. Two. Three.")

	require.True(t, workflow.MoveSentence(d, 0, 2, 0, at))
	assert.Equal(t, "Three. One. Two.", d.Draft().Paragraphs[0])
	entry := d.Refine().EditHistory[0]
	assert.Equal(t, domain.EditActionMove, entry.Action)
	assert.Equal(t, "Three.", entry.NewSentence)
	assert.False(t, entry.IsDeletion())
}

func TestSentenceCascades_NoOpOnBadInput(t *testing.T) {
	d := newDoc()
	assert.False(t, workflow.DeleteSentence(d, 0, 0, at))
	assert.False(t, workflow.EditSentence(nil, 0, 0, "x", at))

	d = draftDoc("One. Two.")
	assert.False(t, workflow.DeleteSentence(d, 1, 0, at))
	assert.False(t, workflow.DeleteSentence(d, 0, 2, at))
	assert.False(t, workflow.EditSentence(d, 0, -1, "x", at))
	assert.False(t, workflow.MoveSentence(d, 0, 0, 0, at))
	assert.False(t, workflow.MoveSentence(d, 0, 0, 5, at))
	assert.Nil(t, d.Refine())
	assert.Equal(t, "One. Two.", d.Draft().Paragraphs[0])
}

func TestEditHistory_AppendOnly(t *testing.T) {
	d := draftDoc("A. B. C. D.")
	workflow.EditSentence(d, 0, 0, "Alpha.", at)
	first := d.Refine().EditHistory[0]

	workflow.DeleteSentence(d, 0, 1, at.Add(time.Second))
	workflow.MoveSentence(d, 0, 0, 1, at.Add(2*time.Second))

	history := d.Refine().EditHistory
	require.Len(t, history, 3)
	assert.Equal(t, first, history[0])
	assert.True(t, workflow.CanAdvance(d, domain.StepRefine))
}
