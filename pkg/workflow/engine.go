package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
)

var (
	// ErrCannotAdvance is returned when the current step's gate is not met.
	ErrCannotAdvance = errors.New("step is not complete")
	// ErrMissingPrerequisites is returned when advancing from a step whose input data is missing.
	ErrMissingPrerequisites = errors.New("step prerequisites missing")
)

// Repository is the persistence the engine needs for navigation.
type Repository interface {
	SaveEssayData(ctx context.Context, data *domain.EssayData) error
	UpdateEssayStep(ctx context.Context, id string, step domain.Step) error
	CompleteEssay(ctx context.Context, id string) error
}

// Flusher persists pending edits before the engine navigates.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Engine drives navigation between steps.
type Engine struct {
	repo       Repository
	flusher    Flusher
	thresholds Thresholds
	hooks      domain.LifecycleHooks
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds overrides DefaultThresholds.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t
	}
}

// WithFlusher makes navigation flush pending autosaves first.
func WithFlusher(f Flusher) Option {
	return func(e *Engine) {
		e.flusher = f
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(h)
	}
}

// WithClock overrides the time source of edit history entries and events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine persisting through repo.
func NewEngine(repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:       repo,
		thresholds: DefaultThresholds(),
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds returns the gates the engine applies.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// CanAdvance reports whether d may move past its current step.
func (e *Engine) CanAdvance(d *domain.EssayData) bool {
	return e.thresholds.CanAdvance(d, d.Essay.CurrentStep)
}

// Enter runs the derivations of step s on d: seeding paragraphs from the
// outline when the draft is opened and repairing the paragraph order when the
// reorder step is opened. The document is saved if anything changed.
func (e *Engine) Enter(ctx context.Context, d *domain.EssayData, s domain.Step) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", domain.ErrInvalidStep, int(s))
	}

	changed := false
	switch s {
	case domain.StepDraft:
		changed = SeedParagraphs(d)
	case domain.StepReorder:
		if d.Reorder() == nil && d.Draft() != nil {
			d.EnsureReorder().ParagraphOrder = Identity(len(d.Draft().Paragraphs))
			changed = true
		} else {
			changed = ReconcileOrder(d)
		}
	}
	if changed {
		if err := e.repo.SaveEssayData(ctx, d); err != nil {
			return err
		}
	}

	if e.hooks.OnStepEnter != nil {
		e.hooks.OnStepEnter(ctx, e.stepEvent(domain.EventStepEnter, d, s))
	}
	return nil
}

// GoTo navigates d to step s. Pending edits are flushed first. Steps are not
// gated: any step may be opened, and the cascades tolerate missing data.
func (e *Engine) GoTo(ctx context.Context, d *domain.EssayData, s domain.Step) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", domain.ErrInvalidStep, int(s))
	}
	if err := e.flush(ctx); err != nil {
		return err
	}

	from := d.Essay.CurrentStep
	if err := e.repo.UpdateEssayStep(ctx, d.Essay.ID, s); err != nil {
		return err
	}
	if e.hooks.OnStepLeave != nil && from.Valid() {
		e.hooks.OnStepLeave(ctx, e.stepEvent(domain.EventStepLeave, d, from))
	}
	d.Essay.CurrentStep = s
	e.logger.Debug("step changed", "essay_id", d.Essay.ID, "from", from, "to", s)

	return e.Enter(ctx, d, s)
}

// Advance moves d past its current step if the step's gate is met. Advancing
// from the last step completes the essay. It returns the step d is on afterwards.
func (e *Engine) Advance(ctx context.Context, d *domain.EssayData) (domain.Step, error) {
	current := d.Essay.CurrentStep
	if !HasPrerequisites(d, current) {
		return current, fmt.Errorf("%w: %s", ErrMissingPrerequisites, current)
	}
	if !e.thresholds.CanAdvance(d, current) {
		return current, fmt.Errorf("%w: %s", ErrCannotAdvance, current)
	}
	if current == domain.LastStep {
		return current, e.Complete(ctx, d)
	}
	next := current + 1
	return next, e.GoTo(ctx, d, next)
}

// Complete marks d as completed. Completion cannot be undone.
func (e *Engine) Complete(ctx context.Context, d *domain.EssayData) error {
	if err := e.flush(ctx); err != nil {
		return err
	}
	if err := e.repo.CompleteEssay(ctx, d.Essay.ID); err != nil {
		return err
	}
	d.Essay.IsCompleted = true
	e.logger.Info("essay completed", "essay_id", d.Essay.ID)

	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete(ctx, &domain.EventBase{
			Timestamp: e.now(),
			Type:      domain.EventCompleted,
			EssayID:   d.Essay.ID,
		})
	}
	return nil
}

// EditSentence is the package EditSentence stamped with the engine clock.
func (e *Engine) EditSentence(d *domain.EssayData, para, idx int, sentence string) bool {
	return EditSentence(d, para, idx, sentence, e.now())
}

// DeleteSentence is the package DeleteSentence stamped with the engine clock.
func (e *Engine) DeleteSentence(d *domain.EssayData, para, idx int) bool {
	return DeleteSentence(d, para, idx, e.now())
}

// MoveSentence is the package MoveSentence stamped with the engine clock.
func (e *Engine) MoveSentence(d *domain.EssayData, para, from, to int) bool {
	return MoveSentence(d, para, from, to, e.now())
}

func (e *Engine) flush(ctx context.Context) error {
	if e.flusher == nil {
		return nil
	}
	if err := e.flusher.Flush(ctx); err != nil {
		return fmt.Errorf("flush before navigation: %w", err)
	}
	return nil
}

func (e *Engine) stepEvent(t domain.EventType, d *domain.EssayData, s domain.Step) *domain.StepEvent {
	return &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: t, EssayID: d.Essay.ID},
		Step:      s,
	}
}
