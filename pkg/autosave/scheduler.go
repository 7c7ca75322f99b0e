// Package autosave decouples rapid in-memory edits from store writes.
//
// A Scheduler owns two timers for one open document: a debounce timer that
// saves after a quiet period following the last edit, and a periodic timer
// that saves whenever edits happened since the last save, so a user who never
// stops typing still gets saved. Both read the document at fire time, never a
// snapshot taken when the edit happened.
package autosave

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
)

// Default timings.
const (
	DefaultDebounce = time.Second
	DefaultInterval = time.Minute
)

// ErrStopped is returned by manual saves on a stopped scheduler.
var ErrStopped = errors.New("autosave stopped")

// Saver persists a document.
type Saver interface {
	SaveEssayData(ctx context.Context, data *domain.EssayData) error
}

// Scheduler debounces and periodically persists one document.
type Scheduler struct {
	source   func() *domain.EssayData
	saver    Saver
	debounce time.Duration
	interval time.Duration
	clock    Clock
	locker   sync.Locker
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	mu            sync.Mutex
	ctx           context.Context
	dirty         bool
	running       bool
	stopped       bool
	debounceTimer Timer
	debounceGen   uint64
	intervalTimer Timer

	saveMu sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDebounce sets the quiet period after the last edit.
func WithDebounce(d time.Duration) Option {
	return func(s *Scheduler) {
		s.debounce = d
	}
}

// WithInterval sets the period of the dirty check. Zero disables it.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithClock replaces the real clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithLocker makes timer-triggered saves hold l while reading and saving the
// document. Flush and Save expect their caller to hold it already.
func WithLocker(l sync.Locker) Option {
	return func(s *Scheduler) {
		s.locker = l
	}
}

// WithHooks registers lifecycle callbacks; only OnSave is used.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(s *Scheduler) {
		s.hooks = s.hooks.Merge(h)
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New creates a scheduler saving the document returned by source.
func New(source func() *domain.EssayData, saver Saver, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:   source,
		saver:    saver,
		debounce: DefaultDebounce,
		interval: DefaultInterval,
		clock:    RealClock(),
		logger:   logging.NewNop(),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start arms the periodic timer. Timer-triggered saves use ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.running {
		return
	}
	s.ctx = ctx
	s.running = true
	s.armInterval()
}

// Touch records an edit and restarts the debounce timer.
func (s *Scheduler) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.dirty = true
	s.cancelDebounce()
	s.debounceGen++
	gen := s.debounceGen
	s.debounceTimer = s.clock.AfterFunc(s.debounce, func() {
		s.fire(domain.TriggerDebounce, gen)
	})
}

// Dirty reports whether edits are waiting to be saved.
func (s *Scheduler) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush cancels the pending debounce and saves now if there are unsaved edits.
func (s *Scheduler) Flush(ctx context.Context) error {
	return s.manual(ctx, false)
}

// Save cancels the pending debounce and saves now, edited or not.
func (s *Scheduler) Save(ctx context.Context) error {
	return s.manual(ctx, true)
}

func (s *Scheduler) manual(ctx context.Context, force bool) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.cancelDebounce()
	s.mu.Unlock()
	return s.save(ctx, domain.TriggerManual, force)
}

// Stop cancels both timers and waits for a save in progress. No save starts
// after Stop returns, so deleting the document afterwards is safe.
func (s *Scheduler) Stop() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.running = false
	s.cancelDebounce()
	if s.intervalTimer != nil {
		s.intervalTimer.Stop()
		s.intervalTimer = nil
	}
}

// cancelDebounce must be called with s.mu held.
func (s *Scheduler) cancelDebounce() {
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	s.debounceGen++
}

// armInterval must be called with s.mu held.
func (s *Scheduler) armInterval() {
	if s.interval <= 0 {
		return
	}
	s.intervalTimer = s.clock.AfterFunc(s.interval, s.tick)
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	s.withLocker(func() {
		_ = s.save(ctx, domain.TriggerInterval, false)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running && !s.stopped {
		s.armInterval()
	}
}

func (s *Scheduler) fire(trigger domain.SaveTrigger, gen uint64) {
	s.mu.Lock()
	if gen != s.debounceGen {
		s.mu.Unlock()
		return
	}
	s.debounceTimer = nil
	ctx := s.ctx
	s.mu.Unlock()

	s.withLocker(func() {
		_ = s.save(ctx, trigger, false)
	})
}

func (s *Scheduler) withLocker(fn func()) {
	if s.locker != nil {
		s.locker.Lock()
		defer s.locker.Unlock()
	}
	fn()
}

func (s *Scheduler) save(ctx context.Context, trigger domain.SaveTrigger, force bool) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.stopped || (!force && !s.dirty) {
		s.mu.Unlock()
		return nil
	}
	s.dirty = false
	s.mu.Unlock()

	doc := s.source()
	if doc == nil {
		return nil
	}

	start := s.clock.Now()
	err := s.saver.SaveEssayData(ctx, doc)
	elapsed := s.clock.Now().Sub(start)

	if err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		s.logger.Warn("autosave failed", "essay_id", doc.Essay.ID, "trigger", trigger, "err", err)
	} else {
		s.logger.Debug("autosaved", "essay_id", doc.Essay.ID, "trigger", trigger, "duration", elapsed)
	}

	if s.hooks.OnSave != nil {
		s.hooks.OnSave(ctx, &domain.SaveEvent{
			EventBase: domain.EventBase{Timestamp: start, Type: domain.EventSave, EssayID: doc.Essay.ID},
			Trigger:   trigger,
			Duration:  elapsed,
			Err:       err,
		})
	}
	return err
}
