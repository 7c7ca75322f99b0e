package quill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/autosave"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/aretw0/quill/pkg/repository"
	"github.com/aretw0/quill/pkg/session"
	"github.com/aretw0/quill/pkg/suggest"
	"github.com/aretw0/quill/pkg/workflow"
)

// ErrNoEssay is returned by document operations when no essay is open.
var ErrNoEssay = errors.New("no essay open")

// ErrNoGateway is returned by suggestion requests when no gateway is configured.
var ErrNoGateway = errors.New("no suggestion gateway configured")

// Editor is the high-level entry point of the library.
// It holds at most one open essay and wires the repository, the workflow
// engine, the autosave scheduler and the suggestion site around it.
// All methods are safe for concurrent use.
type Editor struct {
	repo    *repository.Repository
	engine  *workflow.Engine
	site    *suggest.Site
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	clock   autosave.Clock
	session session.Context
	locks   *session.Locks

	thresholds workflow.Thresholds
	debounce   time.Duration
	interval   time.Duration
	gateway    ports.SuggestionGateway

	mu    sync.Mutex
	doc   *domain.EssayData
	sched *autosave.Scheduler
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithSession scopes the active-essay pointer to s.
func WithSession(s session.Context) Option {
	return func(e *Editor) {
		e.session = s
	}
}

// WithLocks shares a lock table, and its distributed locker, with other editors.
func WithLocks(l *session.Locks) Option {
	return func(e *Editor) {
		e.locks = l
	}
}

// WithThresholds overrides the draft and refine completion gates.
func WithThresholds(t workflow.Thresholds) Option {
	return func(e *Editor) {
		e.thresholds = t
	}
}

// WithAutosave sets the debounce and periodic save intervals.
func WithAutosave(debounce, interval time.Duration) Option {
	return func(e *Editor) {
		e.debounce = debounce
		e.interval = interval
	}
}

// WithClock replaces the real clock for timestamps and autosave timers.
func WithClock(c autosave.Clock) Option {
	return func(e *Editor) {
		e.clock = c
	}
}

// WithGateway enables rewrite suggestions.
func WithGateway(g ports.SuggestionGateway) Option {
	return func(e *Editor) {
		e.gateway = g
	}
}

// New creates an editor over store.
func New(store ports.KVStore, opts ...Option) *Editor {
	e := &Editor{
		logger:     logging.NewNop(),
		clock:      autosave.RealClock(),
		thresholds: workflow.DefaultThresholds(),
		debounce:   autosave.DefaultDebounce,
		interval:   autosave.DefaultInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	now := func() time.Time { return e.clock.Now().UTC() }

	repoOpts := []repository.Option{
		repository.WithSession(e.session),
		repository.WithClock(now),
		repository.WithLogger(e.logger),
	}
	if e.locks != nil {
		repoOpts = append(repoOpts, repository.WithLocks(e.locks))
	}
	e.repo = repository.New(store, repoOpts...)

	e.engine = workflow.NewEngine(e.repo,
		workflow.WithThresholds(e.thresholds),
		workflow.WithFlusher(flushFunc(e.flushLocked)),
		workflow.WithHooks(e.hooks),
		workflow.WithClock(now),
		workflow.WithLogger(e.logger),
	)
	if e.gateway != nil {
		e.site = suggest.NewSite(e.gateway,
			suggest.WithHooks(e.hooks),
			suggest.WithClock(now),
			suggest.WithLogger(e.logger),
		)
	}
	return e
}

type flushFunc func(context.Context) error

func (f flushFunc) Flush(ctx context.Context) error { return f(ctx) }

// Repository exposes the underlying document repository.
func (e *Editor) Repository() *repository.Repository {
	return e.repo
}

// Thresholds returns the completion gates in effect.
func (e *Editor) Thresholds() workflow.Thresholds {
	return e.thresholds
}

// Create creates a new essay, makes it active and opens it.
func (e *Editor) Create(ctx context.Context, title string) (*domain.EssayData, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.closeLocked(ctx); err != nil {
		return nil, err
	}
	d, err := e.repo.CreateNewEssay(ctx, title)
	if err != nil {
		return nil, err
	}
	e.openLocked(ctx, d)
	return d.Clone(), nil
}

// Open loads essay id, makes it active and opens it.
func (e *Editor) Open(ctx context.Context, id string) (*domain.EssayData, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.closeLocked(ctx); err != nil {
		return nil, err
	}
	d, err := e.repo.GetEssayData(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEssayNotFound, id)
	}
	if err := e.repo.SetActiveEssay(ctx, id); err != nil {
		return nil, err
	}
	e.openLocked(ctx, d)
	return d.Clone(), nil
}

// Resume opens the session's active essay. It returns nil if there is none
// or it no longer exists.
func (e *Editor) Resume(ctx context.Context) (*domain.EssayData, error) {
	id, err := e.repo.GetActiveEssay(ctx)
	if err != nil || id == "" {
		return nil, err
	}
	d, err := e.Open(ctx, id)
	if errors.Is(err, domain.ErrEssayNotFound) {
		return nil, e.repo.ClearActiveEssay(ctx)
	}
	return d, err
}

func (e *Editor) openLocked(ctx context.Context, d *domain.EssayData) {
	e.doc = d
	e.sched = autosave.New(func() *domain.EssayData { return e.doc }, e.repo,
		autosave.WithDebounce(e.debounce),
		autosave.WithInterval(e.interval),
		autosave.WithClock(e.clock),
		autosave.WithLocker(&e.mu),
		autosave.WithHooks(e.hooks),
		autosave.WithLogger(e.logger),
	)
	e.sched.Start(context.WithoutCancel(ctx))
	e.logger.Debug("essay opened", "essay_id", d.Essay.ID, "session", e.session.String())
}

// Close saves pending edits and closes the open essay.
func (e *Editor) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeLocked(ctx)
}

func (e *Editor) closeLocked(ctx context.Context) error {
	if e.doc == nil {
		return nil
	}
	if err := e.sched.Flush(ctx); err != nil {
		return err
	}
	e.sched.Stop()
	e.doc, e.sched = nil, nil
	return nil
}

// Delete deletes essay id. If it is open, its timers are cancelled first so
// no pending save can bring it back.
func (e *Editor) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc != nil && e.doc.Essay.ID == id {
		e.sched.Stop()
		e.doc, e.sched = nil, nil
	}
	return e.repo.DeleteEssay(ctx, id)
}

// Document returns a copy of the open essay, or nil.
func (e *Editor) Document() *domain.EssayData {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Clone()
}

// Edit applies fn to the open essay. When fn reports a change the autosave
// scheduler is notified.
func (e *Editor) Edit(fn func(d *domain.EssayData) bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return ErrNoEssay
	}
	if fn(e.doc) {
		e.sched.Touch()
	}
	return nil
}

// SetTitle renames the open essay.
func (e *Editor) SetTitle(title string) error {
	return e.Edit(func(d *domain.EssayData) bool {
		d.Essay.Title = strings.TrimSpace(title)
		return true
	})
}

// Save persists the open essay now, cancelling the pending debounce.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return ErrNoEssay
	}
	return e.sched.Save(ctx)
}

func (e *Editor) flushLocked(ctx context.Context) error {
	if e.sched == nil {
		return nil
	}
	return e.sched.Flush(ctx)
}

// GoTo opens step s of the open essay.
func (e *Editor) GoTo(ctx context.Context, s domain.Step) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return ErrNoEssay
	}
	return e.engine.GoTo(ctx, e.doc, s)
}

// Advance moves the open essay past its current step, completing it after the last one.
func (e *Editor) Advance(ctx context.Context) (domain.Step, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return 0, ErrNoEssay
	}
	return e.engine.Advance(ctx, e.doc)
}

// EditSentence rewrites a sentence of the open essay.
func (e *Editor) EditSentence(para, idx int, sentence string) (bool, error) {
	var changed bool
	err := e.Edit(func(d *domain.EssayData) bool {
		changed = e.engine.EditSentence(d, para, idx, sentence)
		return changed
	})
	return changed, err
}

// DeleteSentence removes a sentence of the open essay.
func (e *Editor) DeleteSentence(para, idx int) (bool, error) {
	var changed bool
	err := e.Edit(func(d *domain.EssayData) bool {
		changed = e.engine.DeleteSentence(d, para, idx)
		return changed
	})
	return changed, err
}

// MoveSentence moves a sentence of the open essay to another position in
// the same paragraph.
func (e *Editor) MoveSentence(para, from, to int) (bool, error) {
	var changed bool
	err := e.Edit(func(d *domain.EssayData) bool {
		changed = e.engine.MoveSentence(d, para, from, to)
		return changed
	})
	return changed, err
}

// Suggest requests rewrites of a sentence of the open essay. The editor is
// not locked while the request is in flight.
func (e *Editor) Suggest(ctx context.Context, para, idx int) ([]string, error) {
	if e.site == nil {
		return nil, ErrNoGateway
	}
	e.mu.Lock()
	if e.doc == nil {
		e.mu.Unlock()
		return nil, ErrNoEssay
	}
	sentences := workflow.Sentences(e.doc, para)
	e.mu.Unlock()

	if idx < 0 || idx >= len(sentences) {
		return nil, &domain.SuggestionError{Message: "no sentence at that position"}
	}
	return e.site.Request(ctx, sentences[idx])
}

// ApplySuggestion writes a chosen rewrite into the open essay.
func (e *Editor) ApplySuggestion(para, idx int, rewrite string) (bool, error) {
	if e.site == nil {
		return false, ErrNoGateway
	}
	var changed bool
	err := e.Edit(func(d *domain.EssayData) bool {
		changed = e.site.Apply(d, para, idx, rewrite)
		return changed
	})
	return changed, err
}

// SnapshotDraft saves the current paragraphs of the open essay as a do-over snapshot.
func (e *Editor) SnapshotDraft(ctx context.Context) (domain.DraftSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return domain.DraftSnapshot{}, ErrNoEssay
	}
	var paragraphs []string
	if draft := e.doc.Draft(); draft != nil {
		paragraphs = draft.Paragraphs
	}
	return e.repo.SaveDraftSnapshot(ctx, e.doc.Essay.ID, strings.Join(paragraphs, "\n\n"))
}
