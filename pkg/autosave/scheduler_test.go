package autosave_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/quill/internal/testutils"
	"github.com/aretw0/quill/pkg/autosave"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSaver struct {
	mu    sync.Mutex
	saved []string
	err   error
}

func (r *recordingSaver) SaveEssayData(ctx context.Context, d *domain.EssayData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, d.Essay.Title)
	return nil
}

func (r *recordingSaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

type fixture struct {
	clock    *testutils.FakeClock
	saver    *recordingSaver
	doc      *domain.EssayData
	triggers []domain.SaveTrigger
	sched    *autosave.Scheduler
}

func newFixture(opts ...autosave.Option) *fixture {
	f := &fixture{
		clock: testutils.NewFakeClock(),
		saver: &recordingSaver{},
		doc:   domain.NewEssayData(domain.Essay{ID: "e1", Title: "v0"}),
	}
	hooks := domain.LifecycleHooks{
		OnSave: func(_ context.Context, e *domain.SaveEvent) {
			if e.Err == nil {
				f.triggers = append(f.triggers, e.Trigger)
			}
		},
	}
	opts = append([]autosave.Option{autosave.WithClock(f.clock), autosave.WithHooks(hooks)}, opts...)
	f.sched = autosave.New(func() *domain.EssayData { return f.doc }, f.saver, opts...)
	return f
}

func TestDebounce_FiveEditsOneSave(t *testing.T) {
	f := newFixture()
	f.sched.Start(context.Background())

	for range 5 {
		f.sched.Touch()
		f.clock.Advance(150 * time.Millisecond)
	}
	assert.Equal(t, 0, f.saver.count())

	f.clock.Advance(time.Second)
	assert.Equal(t, 1, f.saver.count())
	assert.Equal(t, []domain.SaveTrigger{domain.TriggerDebounce}, f.triggers)
	assert.False(t, f.sched.Dirty())

	f.clock.Advance(10 * time.Second)
	assert.Equal(t, 1, f.saver.count())
}

func TestDebounce_ReadsDocumentAtFireTime(t *testing.T) {
	f := newFixture()
	f.sched.Touch()
	f.doc.Essay.Title = "v1"
	f.clock.Advance(time.Second)

	assert.Equal(t, []string{"v1"}, f.saver.saved)
}

func TestInterval_SavesUnderContinuousEdits(t *testing.T) {
	f := newFixture()
	f.sched.Start(context.Background())

	for elapsed := time.Duration(0); elapsed < 70*time.Second; elapsed += 500 * time.Millisecond {
		f.sched.Touch()
		f.clock.Advance(500 * time.Millisecond)
	}

	require.GreaterOrEqual(t, f.saver.count(), 1)
	assert.Equal(t, []domain.SaveTrigger{domain.TriggerInterval}, f.triggers)

	// Going quiet lets the debounce save the rest.
	f.clock.Advance(time.Second)
	assert.Equal(t, []domain.SaveTrigger{domain.TriggerInterval, domain.TriggerDebounce}, f.triggers)
}

func TestInterval_SkipsWhenClean(t *testing.T) {
	f := newFixture()
	f.sched.Start(context.Background())

	f.clock.Advance(5 * time.Minute)
	assert.Equal(t, 0, f.saver.count())
}

func TestFlush_CancelsPendingDebounce(t *testing.T) {
	f := newFixture()
	f.sched.Start(context.Background())
	f.sched.Touch()

	require.NoError(t, f.sched.Flush(context.Background()))
	assert.Equal(t, []domain.SaveTrigger{domain.TriggerManual}, f.triggers)

	f.clock.Advance(2 * time.Second)
	assert.Equal(t, 1, f.saver.count())

	// Nothing left to flush.
	require.NoError(t, f.sched.Flush(context.Background()))
	assert.Equal(t, 1, f.saver.count())

	// Save writes regardless.
	require.NoError(t, f.sched.Save(context.Background()))
	assert.Equal(t, 2, f.saver.count())
}

func TestFailedSave_StaysDirtyForRetry(t *testing.T) {
	f := newFixture()
	boom := errors.New("quota exceeded")
	f.saver.err = boom

	f.sched.Touch()
	f.clock.Advance(time.Second)
	assert.True(t, f.sched.Dirty())

	assert.ErrorIs(t, f.sched.Flush(context.Background()), boom)
	assert.True(t, f.sched.Dirty())

	f.saver.err = nil
	require.NoError(t, f.sched.Flush(context.Background()))
	assert.False(t, f.sched.Dirty())
	assert.Equal(t, 1, f.saver.count())
}

func TestStop_PreventsWriteAfterDelete(t *testing.T) {
	f := newFixture()
	f.sched.Start(context.Background())
	f.sched.Touch()

	f.sched.Stop()
	assert.Zero(t, f.clock.Pending())
	f.clock.Advance(2 * time.Minute)
	f.sched.Touch()
	f.clock.Advance(2 * time.Second)

	assert.Equal(t, 0, f.saver.count())
	assert.ErrorIs(t, f.sched.Flush(context.Background()), autosave.ErrStopped)
}

type countingLocker struct {
	sync.Mutex
	locks int
}

func (l *countingLocker) Lock() {
	l.Mutex.Lock()
	l.locks++
}

func TestLocker_HeldDuringTimerSaves(t *testing.T) {
	locker := &countingLocker{}
	f := newFixture(autosave.WithLocker(locker))
	f.sched.Start(context.Background())

	f.sched.Touch()
	f.clock.Advance(time.Second)
	assert.Equal(t, 1, locker.locks)
	assert.Equal(t, 1, f.saver.count())

	// Manual saves run under the caller's lock.
	locker.Lock()
	f.sched.Touch()
	require.NoError(t, f.sched.Flush(context.Background()))
	locker.Unlock()
	assert.Equal(t, 2, locker.locks)
	assert.Equal(t, 2, f.saver.count())
}
