package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/quill/pkg/schema"
	"github.com/mitchellh/mapstructure"
)

// EssayData is a complete essay document: metadata plus the payloads of the
// steps visited so far. A document is valid at every stage of completion.
type EssayData struct {
	Essay Essay

	steps map[Step]StepPayload
}

// NewEssayData creates a document with no visited steps.
func NewEssayData(essay Essay) *EssayData {
	return &EssayData{
		Essay: essay,
		steps: make(map[Step]StepPayload),
	}
}

// Payload returns the payload of step s, if the step has been visited.
func (d *EssayData) Payload(s Step) (StepPayload, bool) {
	if d == nil || d.steps == nil {
		return nil, false
	}
	p, ok := d.steps[s]
	return p, ok
}

// SetPayload stores p under the step it belongs to, replacing any previous payload.
func (d *EssayData) SetPayload(p StepPayload) {
	if d == nil || p == nil {
		return
	}
	if d.steps == nil {
		d.steps = make(map[Step]StepPayload)
	}
	d.steps[p.Step()] = p
}

// ClearPayload forgets the payload of step s.
func (d *EssayData) ClearPayload(s Step) {
	if d == nil {
		return
	}
	delete(d.steps, s)
}

// Visited reports whether step s has a payload.
func (d *EssayData) Visited(s Step) bool {
	_, ok := d.Payload(s)
	return ok
}

// VisitedSteps returns the visited steps in wizard order.
func (d *EssayData) VisitedSteps() []Step {
	var out []Step
	for _, s := range Steps() {
		if d.Visited(s) {
			out = append(out, s)
		}
	}
	return out
}

func payloadAs[T StepPayload](d *EssayData, s Step) T {
	var zero T
	p, ok := d.Payload(s)
	if !ok {
		return zero
	}
	typed, ok := p.(T)
	if !ok {
		return zero
	}
	return typed
}

func ensurePayload[T StepPayload](d *EssayData, s Step) T {
	var zero T
	if d == nil {
		return zero
	}
	if p, ok := d.Payload(s); ok {
		if typed, ok := p.(T); ok {
			return typed
		}
	}
	typed, ok := newPayload(s).(T)
	if !ok {
		return zero
	}
	d.SetPayload(typed)
	return typed
}

// Typed accessors return nil when the step has not been visited.

func (d *EssayData) Plan() *PlanStep { return payloadAs[*PlanStep](d, StepPlan) }
func (d *EssayData) Brainstorm() *BrainstormStep {
	return payloadAs[*BrainstormStep](d, StepBrainstorm)
}
func (d *EssayData) Research() *ResearchStep { return payloadAs[*ResearchStep](d, StepResearch) }
func (d *EssayData) Outline() *OutlineStep   { return payloadAs[*OutlineStep](d, StepOutline) }
func (d *EssayData) Draft() *DraftStep       { return payloadAs[*DraftStep](d, StepDraft) }
func (d *EssayData) Refine() *RefineStep     { return payloadAs[*RefineStep](d, StepRefine) }
func (d *EssayData) Reorder() *ReorderStep   { return payloadAs[*ReorderStep](d, StepReorder) }
func (d *EssayData) Review() *ReviewStep     { return payloadAs[*ReviewStep](d, StepReview) }
func (d *EssayData) Finalize() *FinalizeStep { return payloadAs[*FinalizeStep](d, StepFinalize) }

// Ensure* accessors create an empty payload when the step has not been visited.

func (d *EssayData) EnsureOutline() *OutlineStep { return ensurePayload[*OutlineStep](d, StepOutline) }
func (d *EssayData) EnsureDraft() *DraftStep     { return ensurePayload[*DraftStep](d, StepDraft) }
func (d *EssayData) EnsureRefine() *RefineStep   { return ensurePayload[*RefineStep](d, StepRefine) }
func (d *EssayData) EnsureReorder() *ReorderStep { return ensurePayload[*ReorderStep](d, StepReorder) }

// Clone returns a deep copy of the document.
func (d *EssayData) Clone() *EssayData {
	if d == nil {
		return nil
	}
	out := NewEssayData(d.Essay)
	for s, p := range d.steps {
		out.steps[s] = clonePayload(p)
	}
	return out
}

func clonePayload(p StepPayload) StepPayload {
	switch v := p.(type) {
	case *PlanStep:
		c := *v
		return &c
	case *BrainstormStep:
		c := *v
		c.Ideas = cloneStrings(v.Ideas)
		return &c
	case *ResearchStep:
		c := *v
		c.Topics = cloneStrings(v.Topics)
		if v.Readings != nil {
			c.Readings = append([]Reading(nil), v.Readings...)
		}
		return &c
	case *OutlineStep:
		return &OutlineStep{OutlineSentences: cloneStrings(v.OutlineSentences)}
	case *DraftStep:
		return &DraftStep{Paragraphs: cloneStrings(v.Paragraphs)}
	case *RefineStep:
		c := &RefineStep{}
		if v.EditHistory != nil {
			c.EditHistory = append([]EditEntry(nil), v.EditHistory...)
		}
		return c
	case *ReorderStep:
		c := &ReorderStep{}
		if v.ParagraphOrder != nil {
			c.ParagraphOrder = append([]int(nil), v.ParagraphOrder...)
		}
		return c
	case *ReviewStep:
		c := *v
		c.Checklist = maps.Clone(v.Checklist)
		return &c
	case *FinalizeStep:
		c := *v
		return &c
	}
	return p
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

// Prune returns a copy with blank rows removed: readings without a title and
// blank outline sentences, together with the blank paragraph seeded for them. It is applied when a document is persisted, never
// while the user is editing.
func (d *EssayData) Prune() *EssayData {
	out := d.Clone()
	if out == nil {
		return nil
	}
	if r := out.Research(); r != nil && r.Readings != nil {
		kept := r.Readings[:0]
		for _, reading := range r.Readings {
			if strings.TrimSpace(reading.Title) != "" {
				kept = append(kept, reading)
			}
		}
		r.Readings = kept
	}
	if o := out.Outline(); o != nil && o.OutlineSentences != nil {
		for i := len(o.OutlineSentences) - 1; i >= 0; i-- {
			if strings.TrimSpace(o.OutlineSentences[i]) != "" {
				continue
			}
			o.OutlineSentences = slices.Delete(o.OutlineSentences, i, i+1)
			out.dropBlankParagraph(i)
		}
	}
	return out
}

// dropBlankParagraph removes paragraph i if it is blank, so paragraphs stay
// aligned with the outline once its blank row is gone. The paragraph order
// loses that position and stays a permutation.
func (d *EssayData) dropBlankParagraph(i int) {
	draft := d.Draft()
	if draft == nil || i >= len(draft.Paragraphs) || strings.TrimSpace(draft.Paragraphs[i]) != "" {
		return
	}
	n := len(draft.Paragraphs)
	draft.Paragraphs = slices.Delete(draft.Paragraphs, i, i+1)

	r := d.Reorder()
	if r == nil || len(r.ParagraphOrder) != n {
		return
	}
	orig := r.ParagraphOrder[i]
	r.ParagraphOrder = slices.Delete(r.ParagraphOrder, i, i+1)
	for j, o := range r.ParagraphOrder {
		if o > orig {
			r.ParagraphOrder[j] = o - 1
		}
	}
}

// NonBlank returns the entries of in that contain non-whitespace text.
func NonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// MarshalJSON writes the document as {"essay": ..., "stepN": ...}.
func (d EssayData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.steps)+1)
	out["essay"] = d.Essay
	for s, p := range d.steps {
		out[s.Key()] = p
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a document, validating every step object against its schema.
func (d *EssayData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	essayRaw, ok := raw["essay"]
	if !ok {
		return errors.New("document has no essay record")
	}
	var essay Essay
	if err := json.Unmarshal(essayRaw, &essay); err != nil {
		return fmt.Errorf("essay record: %w", err)
	}

	steps := make(map[Step]StepPayload)
	for _, s := range Steps() {
		stepRaw, ok := raw[s.Key()]
		if !ok {
			continue
		}
		p, err := decodePayload(s, stepRaw)
		if err != nil {
			return err
		}
		if p != nil {
			steps[s] = p
		}
	}

	d.Essay = essay
	d.steps = steps
	return nil
}

func decodePayload(s Step, raw json.RawMessage) (StepPayload, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Key(), err)
	}
	if fields == nil {
		// "stepN": null is the same as an unvisited step.
		return nil, nil
	}
	if err := schema.Validate(PayloadSchema(s), fields); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Key(), err)
	}

	p := newPayload(s)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     p,
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(fields); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Key(), err)
	}
	return p, nil
}

// DraftSnapshot is a saved "do-over" copy of the essay text.
type DraftSnapshot struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Title     string    `json:"title"`
}
