package workflow

import (
	"errors"
	"slices"

	"github.com/aretw0/quill/pkg/domain"
)

// ErrNotPermutation is returned when an order is not a permutation of 0..n-1.
var ErrNotPermutation = errors.New("not a permutation")

// Identity returns the permutation [0, 1, ..., n-1].
func Identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// IsPermutation reports whether perm holds each of 0..n-1 exactly once.
func IsPermutation(perm []int, n int) bool {
	if len(perm) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range perm {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// ApplyPermutation returns items rearranged so that position i holds items[perm[i]].
func ApplyPermutation[T any](items []T, perm []int) ([]T, error) {
	if !IsPermutation(perm, len(items)) {
		return nil, ErrNotPermutation
	}
	out := make([]T, len(items))
	for i, src := range perm {
		out[i] = items[src]
	}
	return out, nil
}

// InvertPermutation returns the permutation that undoes perm, or nil if perm
// is not a permutation.
func InvertPermutation(perm []int) []int {
	if !IsPermutation(perm, len(perm)) {
		return nil
	}
	out := make([]int, len(perm))
	for i, v := range perm {
		out[v] = i
	}
	return out
}

// ReconcileOrder repairs step 7's order after paragraphs were added or
// removed. Valid, unique indices keep their relative order, missing indices
// are appended in ascending order and the result has one entry per paragraph.
func ReconcileOrder(d *domain.EssayData) bool {
	draft, reorder := d.Draft(), d.Reorder()
	if draft == nil || reorder == nil {
		return false
	}
	fixed := reconcile(reorder.ParagraphOrder, len(draft.Paragraphs))
	if slices.Equal(fixed, reorder.ParagraphOrder) {
		return false
	}
	reorder.ParagraphOrder = fixed
	return true
}

func reconcile(order []int, n int) []int {
	out := make([]int, 0, n)
	seen := make([]bool, n)
	for _, v := range order {
		if v >= 0 && v < n && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for v := range n {
		if !seen[v] {
			out = append(out, v)
		}
	}
	return out
}

// ReorderParagraphs rearranges the paragraphs so position i holds the current
// paragraph perm[i], and records the composed order in step 7.
func ReorderParagraphs(d *domain.EssayData, perm []int) bool {
	draft := d.Draft()
	if draft == nil {
		return false
	}
	paragraphs, err := ApplyPermutation(draft.Paragraphs, perm)
	if err != nil {
		return false
	}

	reorder := d.EnsureReorder()
	order, _ := ApplyPermutation(reconcile(reorder.ParagraphOrder, len(paragraphs)), perm)

	draft.Paragraphs = paragraphs
	reorder.ParagraphOrder = order
	return true
}

// MoveParagraph moves the paragraph at position from to position to.
func MoveParagraph(d *domain.EssayData, from, to int) bool {
	draft := d.Draft()
	if draft == nil {
		return false
	}
	n := len(draft.Paragraphs)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return false
	}
	perm := slices.Delete(Identity(n), from, from+1)
	perm = slices.Insert(perm, to, from)
	return ReorderParagraphs(d, perm)
}

// RestoreOrder undoes every reordering so the paragraphs are back in the
// order they were drafted in.
func RestoreOrder(d *domain.EssayData) bool {
	draft, reorder := d.Draft(), d.Reorder()
	if draft == nil || reorder == nil {
		return false
	}
	order := reconcile(reorder.ParagraphOrder, len(draft.Paragraphs))
	if slices.Equal(order, Identity(len(order))) {
		return false
	}
	return ReorderParagraphs(d, InvertPermutation(order))
}

// OriginalIndex returns the index paragraph pos had before any reordering,
// or -1 if pos is out of range.
func OriginalIndex(d *domain.EssayData, pos int) int {
	draft := d.Draft()
	if draft == nil || pos < 0 || pos >= len(draft.Paragraphs) {
		return -1
	}
	reorder := d.Reorder()
	if reorder == nil {
		return pos
	}
	return reconcile(reorder.ParagraphOrder, len(draft.Paragraphs))[pos]
}
