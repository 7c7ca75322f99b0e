// Package workflow encodes the nine-step essay wizard.
//
// It answers three questions about a document and a step: whether the data
// the step needs exists (HasPrerequisites), whether the user may move past it
// (Thresholds.CanAdvance), and how an edit in one step rewrites the data of
// later steps (the cascade functions).
//
// Cascades never fail. Out-of-range indices, empty lists and unvisited steps
// turn them into no-ops that report false, because a user can reach any step
// out of the expected order.
//
// Paragraph reordering is applied immediately: step 5 paragraphs always hold
// the current order, and step 7 keeps the permutation back to the original
// indices in lockstep so "originally paragraph 3" can still be shown.
package workflow
