package repository_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/quill/pkg/adapters/memory"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/repository"
	"github.com/aretw0/quill/pkg/session"
	"github.com/aretw0/quill/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock returns the same instant on every call until advanced.
type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newRepo(t *testing.T, opts ...repository.Option) (*repository.Repository, *memory.Store, *fixedClock) {
	t.Helper()
	store := memory.NewStore()
	clock := &fixedClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	opts = append([]repository.Option{repository.WithClock(clock.now)}, opts...)
	return repository.New(store, opts...), store, clock
}

func TestCreateNewEssay(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newRepo(t)

	data, err := repo.CreateNewEssay(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTitle, data.Essay.Title)
	assert.Equal(t, domain.StepPlan, data.Essay.CurrentStep)
	assert.False(t, data.Essay.IsCompleted)
	assert.Equal(t, data.Essay.CreatedAt, data.Essay.LastUpdatedAt)
	assert.Empty(t, data.VisitedSteps())

	active, err := repo.GetActiveEssay(ctx)
	require.NoError(t, err)
	assert.Equal(t, data.Essay.ID, active)

	loaded, err := repo.GetEssayData(ctx, data.Essay.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, data.Essay, loaded.Essay)
}

func TestNewID(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	a := repository.NewID(now)
	b := repository.NewID(now)

	assert.True(t, strings.HasPrefix(a, "loyw3v28-"), a)
	assert.Len(t, a, len("loyw3v28-")+8)
	assert.NotEqual(t, a, b)
}

func TestSaveEssayData_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _, clock := newRepo(t)

	data, err := repo.CreateNewEssay(ctx, "Rivers")
	require.NoError(t, err)

	data.SetPayload(&domain.PlanStep{Goal: "Explain floods", Workspace: "Library", Time: "2h"})
	data.SetPayload(&domain.ResearchStep{
		Topics:   []string{"hydrology"},
		Readings: []domain.Reading{{Title: "Rivers", Notes: "ch. 2"}, {Title: " ", Notes: "stray"}},
	})
	data.SetPayload(&domain.OutlineStep{OutlineSentences: []string{"A is true.", "", "B follows."}})
	data.SetPayload(&domain.DraftStep{Paragraphs: []string{"A is true. More.", "B follows."}})
	data.SetPayload(&domain.RefineStep{EditHistory: []domain.EditEntry{{
		ParagraphIndex:   0,
		OriginalSentence: "More.",
		NewSentence:      "Much more.",
		Timestamp:        clock.now(),
		Action:           domain.EditActionEdit,
	}}})
	data.SetPayload(&domain.ReorderStep{ParagraphOrder: []int{1, 0}})
	data.SetPayload(&domain.ReviewStep{Checklist: map[string]bool{"thesis": true}})
	data.SetPayload(&domain.FinalizeStep{Bibliography: "Doe 2020", FormattingChecks: domain.FormattingChecks{TitlePage: true}})

	clock.advance(time.Second)
	require.NoError(t, repo.SaveEssayData(ctx, data))

	loaded, err := repo.GetEssayData(ctx, data.Essay.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	expected := data.Prune()
	assert.Equal(t, expected.Essay, loaded.Essay)
	for _, s := range domain.Steps() {
		want, _ := expected.Payload(s)
		got, _ := loaded.Payload(s)
		assert.Equal(t, want, got, s.String())
	}

	// The caller keeps its blank rows.
	assert.Len(t, data.Outline().OutlineSentences, 3)
	assert.Len(t, data.Research().Readings, 2)
	assert.Equal(t, []string{"A is true.", "B follows."}, loaded.Outline().OutlineSentences)
	assert.Len(t, loaded.Research().Readings, 1)
}

func TestSaveEssayData_StrictlyIncreasingTimestamp(t *testing.T) {
	ctx := context.Background()
	repo, _, clock := newRepo(t)

	data, err := repo.CreateNewEssay(ctx, "Clockless")
	require.NoError(t, err)
	created := data.Essay.LastUpdatedAt

	require.NoError(t, repo.SaveEssayData(ctx, data))
	first := data.Essay.LastUpdatedAt
	require.NoError(t, repo.SaveEssayData(ctx, data))
	second := data.Essay.LastUpdatedAt

	assert.True(t, first.After(created))
	assert.True(t, second.After(first))

	clock.advance(time.Hour)
	require.NoError(t, repo.SaveEssayData(ctx, data))
	assert.Equal(t, clock.now(), data.Essay.LastUpdatedAt)
}

func TestSaveEssayData_CompletionLatch(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newRepo(t)

	data, err := repo.CreateNewEssay(ctx, "Done")
	require.NoError(t, err)
	stale := data.Clone()

	require.NoError(t, repo.CompleteEssay(ctx, data.Essay.ID))

	// A stale in-memory copy must not reopen the essay.
	require.NoError(t, repo.SaveEssayData(ctx, stale))
	assert.True(t, stale.Essay.IsCompleted)

	loaded, err := repo.GetEssayData(ctx, data.Essay.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Essay.IsCompleted)
}

func TestSaveEssayData_QuotaExceeded(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(memory.WithQuota(600))
	repo := repository.New(store)

	data, err := repo.CreateNewEssay(ctx, "Big")
	require.NoError(t, err)
	before := data.Essay.LastUpdatedAt

	data.SetPayload(&domain.DraftStep{Paragraphs: []string{strings.Repeat("word ", 500)}})
	err = repo.SaveEssayData(ctx, data)
	require.Error(t, err)

	var storageErr *domain.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "set", storageErr.Op)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)

	// Nothing changed on failure.
	assert.Equal(t, before, data.Essay.LastUpdatedAt)
	loaded, err := repo.GetEssayData(ctx, data.Essay.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Visited(domain.StepDraft))
}

func TestSaveEssayData_RequiresID(t *testing.T) {
	repo, _, _ := newRepo(t)
	assert.ErrorIs(t, repo.SaveEssayData(context.Background(), nil), domain.ErrEssayNotFound)
	assert.ErrorIs(t, repo.SaveEssayData(context.Background(), domain.NewEssayData(domain.Essay{})), domain.ErrEssayNotFound)
}

func TestGetEssayData_AbsentAndCorrupt(t *testing.T) {
	ctx := context.Background()
	repo, store, _ := newRepo(t)

	data, err := repo.GetEssayData(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, store.Set(ctx, repository.EssayKey("bad"), "{not json"))
	data, err = repo.GetEssayData(ctx, "bad")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, store.Set(ctx, repository.EssayKey("wrong"), `{"essay":{"id":"wrong"},"step4":{"outlineSentences":"x"}}`))
	data, err = repo.GetEssayData(ctx, "wrong")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestGetAllEssays_SkipsCorruptAndSorts(t *testing.T) {
	ctx := context.Background()
	repo, store, clock := newRepo(t)

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		data, err := repo.CreateNewEssay(ctx, title)
		require.NoError(t, err)
		ids = append(ids, data.Essay.ID)
		clock.advance(time.Minute)
	}
	_, err := repo.SaveDraftSnapshot(ctx, ids[0], "old text")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, repository.EssayKey("corrupt"), "]["))

	essays, err := repo.GetAllEssays(ctx)
	require.NoError(t, err)
	require.Len(t, essays, 3)
	assert.Equal(t, "third", essays[0].Title)
	assert.Equal(t, "second", essays[1].Title)
	assert.Equal(t, "first", essays[2].Title)

	// Touching the oldest moves it to the front.
	data, err := repo.GetEssayData(ctx, ids[0])
	require.NoError(t, err)
	clock.advance(time.Minute)
	require.NoError(t, repo.SaveEssayData(ctx, data))

	essays, err = repo.GetAllEssays(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", essays[0].Title)
}

func TestDeleteEssay(t *testing.T) {
	ctx := context.Background()
	repo, store, _ := newRepo(t)

	keep, err := repo.CreateNewEssay(ctx, "keep")
	require.NoError(t, err)
	gone, err := repo.CreateNewEssay(ctx, "gone")
	require.NoError(t, err)
	_, err = repo.SaveDraftSnapshot(ctx, gone.Essay.ID, "text")
	require.NoError(t, err)

	require.NoError(t, repo.DeleteEssay(ctx, gone.Essay.ID))

	data, err := repo.GetEssayData(ctx, gone.Essay.ID)
	require.NoError(t, err)
	assert.Nil(t, data)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.NotContains(t, keys, repository.DraftsKey(gone.Essay.ID))

	active, err := repo.GetActiveEssay(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	// Deleting a non-active essay leaves the pointer alone.
	require.NoError(t, repo.SetActiveEssay(ctx, keep.Essay.ID))
	require.NoError(t, repo.DeleteEssay(ctx, "missing"))
	active, err = repo.GetActiveEssay(ctx)
	require.NoError(t, err)
	assert.Equal(t, keep.Essay.ID, active)
}

func TestActiveEssay_PerSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	tab1 := repository.New(store)
	tab2 := repository.New(store, repository.WithSession(session.New("tab2")))

	require.NoError(t, tab1.SetActiveEssay(ctx, "a"))
	require.NoError(t, tab2.SetActiveEssay(ctx, "b"))

	a, err := tab1.GetActiveEssay(ctx)
	require.NoError(t, err)
	b, err := tab2.GetActiveEssay(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", a)
	assert.Equal(t, "b", b)

	require.NoError(t, tab2.ClearActiveEssay(ctx))
	b, err = tab2.GetActiveEssay(ctx)
	require.NoError(t, err)
	assert.Empty(t, b)

	// Active pointers are not essays.
	essays, err := tab1.GetAllEssays(ctx)
	require.NoError(t, err)
	assert.Empty(t, essays)
}

func TestUpdateEssayStep(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newRepo(t)

	data, err := repo.CreateNewEssay(ctx, "Steps")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateEssayStep(ctx, data.Essay.ID, domain.StepDraft))
	loaded, err := repo.GetEssayData(ctx, data.Essay.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepDraft, loaded.Essay.CurrentStep)
	assert.True(t, loaded.Essay.LastUpdatedAt.After(data.Essay.LastUpdatedAt))

	// Going back is allowed.
	require.NoError(t, repo.UpdateEssayStep(ctx, data.Essay.ID, domain.StepPlan))

	assert.ErrorIs(t, repo.UpdateEssayStep(ctx, data.Essay.ID, 10), domain.ErrInvalidStep)
	assert.ErrorIs(t, repo.UpdateEssayStep(ctx, data.Essay.ID, 0), domain.ErrInvalidStep)
	assert.ErrorIs(t, repo.UpdateEssayStep(ctx, "missing", domain.StepDraft), domain.ErrEssayNotFound)
}

func TestDraftSnapshots(t *testing.T) {
	ctx := context.Background()
	repo, store, clock := newRepo(t)

	data, err := repo.CreateNewEssay(ctx, "Drafts")
	require.NoError(t, err)

	snaps, err := repo.GetDraftSnapshots(ctx, data.Essay.ID)
	require.NoError(t, err)
	assert.Empty(t, snaps)

	_, err = repo.SaveDraftSnapshot(ctx, data.Essay.ID, "one")
	require.NoError(t, err)
	clock.advance(time.Second)
	snap, err := repo.SaveDraftSnapshot(ctx, data.Essay.ID, "two")
	require.NoError(t, err)
	assert.Equal(t, "Drafts", snap.Title)

	snaps, err = repo.GetDraftSnapshots(ctx, data.Essay.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "one", snaps[0].Content)
	assert.Equal(t, "two", snaps[1].Content)
	assert.True(t, snaps[1].CreatedAt.After(snaps[0].CreatedAt))

	_, err = repo.SaveDraftSnapshot(ctx, "missing", "x")
	assert.ErrorIs(t, err, domain.ErrEssayNotFound)

	require.NoError(t, store.Set(ctx, repository.DraftsKey(data.Essay.ID), "nope"))
	snaps, err = repo.GetDraftSnapshots(ctx, data.Essay.ID)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

type failingStore struct {
	*memory.Store
	err error
}

func (s *failingStore) Get(ctx context.Context, key string) (string, error) {
	return "", s.err
}

func (s *failingStore) Keys(ctx context.Context) ([]string, error) {
	return nil, s.err
}

func TestReadFailuresAreStorageErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	repo := repository.New(&failingStore{Store: memory.NewStore(), err: boom})

	_, err := repo.GetEssayData(ctx, "x")
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, boom)

	_, err = repo.GetAllEssays(ctx)
	assert.ErrorIs(t, err, domain.ErrStorage)

	_, err = repo.GetActiveEssay(ctx)
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestSaveEssayData_OutlineStaysAlignedAfterReload(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newRepo(t)

	data, err := repo.CreateNewEssay(ctx, "Alignment")
	require.NoError(t, err)
	workflow.AddOutlineSentence(data, "A is true.")
	workflow.AddOutlineSentence(data, "")
	workflow.AddOutlineSentence(data, "C holds.")
	require.Equal(t, "", data.Draft().Paragraphs[1])
	require.NoError(t, repo.SaveEssayData(ctx, data))

	loaded, err := repo.GetEssayData(ctx, data.Essay.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []string{"A is true.", "C holds."}, loaded.Outline().OutlineSentences)
	assert.Len(t, loaded.Draft().Paragraphs, 2)

	require.True(t, workflow.SetOutlineSentence(loaded, 1, "C changed."))
	assert.Equal(t, []string{
		workflow.Placeholder("A is true."),
		workflow.Placeholder("C changed."),
	}, loaded.Draft().Paragraphs)
}

// slowStore widens the window between reading and writing an essay.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Get(ctx context.Context, key string) (string, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Get(ctx, key)
}

func TestUpdate_SerializesConcurrentEdits(t *testing.T) {
	ctx := context.Background()
	repo := repository.New(slowStore{memory.NewStore()})

	data, err := repo.CreateNewEssay(ctx, "Race")
	require.NoError(t, err)

	sentences := []string{"A is true.", "B follows.", "C holds.", "D ends."}
	var wg sync.WaitGroup
	for _, sentence := range sentences {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, data.Essay.ID, func(d *domain.EssayData) bool {
				return workflow.AddOutlineSentence(d, sentence)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	loaded, err := repo.GetEssayData(ctx, data.Essay.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, sentences, loaded.Outline().OutlineSentences)
	assert.Len(t, loaded.Draft().Paragraphs, len(sentences))
}

func TestUpdate_NoChangeNoWrite(t *testing.T) {
	ctx := context.Background()
	repo, _, clock := newRepo(t)

	data, err := repo.CreateNewEssay(ctx, "Still")
	require.NoError(t, err)
	clock.advance(time.Minute)

	got, err := repo.Update(ctx, data.Essay.ID, func(*domain.EssayData) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, data.Essay.LastUpdatedAt, got.Essay.LastUpdatedAt)

	_, err = repo.Update(ctx, "missing", func(*domain.EssayData) bool { return true })
	assert.ErrorIs(t, err, domain.ErrEssayNotFound)
}
