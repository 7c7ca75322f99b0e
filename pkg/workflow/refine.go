package workflow

import (
	"slices"
	"strings"
	"time"

	"github.com/aretw0/quill/pkg/domain"
)

// Sentences returns the sentences of paragraph para, or nil if it does not exist.
func Sentences(d *domain.EssayData, para int) []string {
	draft := d.Draft()
	if draft == nil || para < 0 || para >= len(draft.Paragraphs) {
		return nil
	}
	return SplitSentences(draft.Paragraphs[para])
}

// EditSentence replaces sentence idx of paragraph para and logs the change.
// A blank replacement deletes the sentence.
func EditSentence(d *domain.EssayData, para, idx int, sentence string, at time.Time) bool {
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return DeleteSentence(d, para, idx, at)
	}
	sentences := Sentences(d, para)
	if idx < 0 || idx >= len(sentences) || sentences[idx] == sentence {
		return false
	}
	original := sentences[idx]
	sentences[idx] = sentence
	commit(d, para, sentences, domain.EditEntry{
		OriginalSentence: original,
		NewSentence:      sentence,
		Action:           domain.EditActionEdit,
	}, at)
	return true
}

// DeleteSentence removes sentence idx of paragraph para and logs a deletion.
func DeleteSentence(d *domain.EssayData, para, idx int, at time.Time) bool {
	sentences := Sentences(d, para)
	if idx < 0 || idx >= len(sentences) {
		return false
	}
	original := sentences[idx]
	commit(d, para, slices.Delete(sentences, idx, idx+1), domain.EditEntry{
		OriginalSentence: original,
		Action:           domain.EditActionDelete,
	}, at)
	return true
}

// MoveSentence moves sentence from to position to within paragraph para.
func MoveSentence(d *domain.EssayData, para, from, to int, at time.Time) bool {
	sentences := Sentences(d, para)
	if from < 0 || from >= len(sentences) || to < 0 || to >= len(sentences) || from == to {
		return false
	}
	moved := sentences[from]
	sentences = slices.Insert(slices.Delete(sentences, from, from+1), to, moved)
	commit(d, para, sentences, domain.EditEntry{
		OriginalSentence: moved,
		NewSentence:      moved,
		Action:           domain.EditActionMove,
	}, at)
	return true
}

func commit(d *domain.EssayData, para int, sentences []string, entry domain.EditEntry, at time.Time) {
	d.Draft().Paragraphs[para] = JoinSentences(sentences)
	entry.ParagraphIndex = para
	entry.Timestamp = at
	refine := d.EnsureRefine()
	refine.EditHistory = append(refine.EditHistory, entry)
}
