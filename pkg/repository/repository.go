package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/aretw0/quill/pkg/session"
	"github.com/google/uuid"
)

// Key prefixes of the persisted records.
const (
	EssayKeyPrefix  = "essay_"
	DraftsKeyPrefix = "essay_drafts_"
)

// EssayKey returns the store key of essay id.
func EssayKey(id string) string { return EssayKeyPrefix + id }

// DraftsKey returns the store key of the draft snapshots of essay id.
func DraftsKey(id string) string { return DraftsKeyPrefix + id }

// Repository reads and writes essay documents.
type Repository struct {
	store   ports.KVStore
	session session.Context
	locks   *session.Locks
	now     func() time.Time
	newID   func(time.Time) string
	logger  *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithSession scopes the active-essay pointer to s.
func WithSession(s session.Context) Option {
	return func(r *Repository) {
		r.session = s
	}
}

// WithLocks shares a lock table between repositories over the same store.
func WithLocks(l *session.Locks) Option {
	return func(r *Repository) {
		r.locks = l
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// WithIDGenerator overrides essay id generation.
func WithIDGenerator(gen func(time.Time) string) Option {
	return func(r *Repository) {
		r.newID = gen
	}
}

// WithLogger sets the logger used for skipped records.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// New creates a repository over store.
func New(store ports.KVStore, opts ...Option) *Repository {
	r := &Repository{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  NewID,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.locks == nil {
		r.locks = session.NewLocks(session.WithLogger(r.logger))
	}
	return r
}

// Session returns the session the active pointer belongs to.
func (r *Repository) Session() session.Context {
	return r.session
}

// NewID returns a base36 millisecond timestamp followed by a random suffix.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + suffix
}

// CreateNewEssay creates, persists and activates a new essay at step 1.
func (r *Repository) CreateNewEssay(ctx context.Context, title string) (*domain.EssayData, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultTitle
	}
	now := r.now()
	data := domain.NewEssayData(domain.Essay{
		ID:            r.newID(now),
		Title:         title,
		CurrentStep:   domain.FirstStep,
		CreatedAt:     now,
		LastUpdatedAt: now,
	})
	if err := r.write(ctx, data); err != nil {
		return nil, err
	}
	if err := r.SetActiveEssay(ctx, data.Essay.ID); err != nil {
		return nil, err
	}
	r.logger.Debug("essay created", "essay_id", data.Essay.ID)
	return data, nil
}

// GetAllEssays lists the metadata of every readable essay, most recently
// updated first. Unreadable records are skipped.
func (r *Repository) GetAllEssays(ctx context.Context) ([]domain.Essay, error) {
	keys, err := r.store.Keys(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "keys", Err: err}
	}

	var essays []domain.Essay
	for _, key := range keys {
		if !strings.HasPrefix(key, EssayKeyPrefix) || strings.HasPrefix(key, DraftsKeyPrefix) {
			continue
		}
		data, err := r.load(ctx, key)
		if err != nil {
			return nil, err
		}
		if data == nil {
			continue
		}
		essays = append(essays, data.Essay)
	}

	slices.SortStableFunc(essays, func(a, b domain.Essay) int {
		if c := b.LastUpdatedAt.Compare(a.LastUpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return essays, nil
}

// GetEssayData returns the document of essay id, or nil if it is missing or
// cannot be parsed.
func (r *Repository) GetEssayData(ctx context.Context, id string) (*domain.EssayData, error) {
	if id == "" {
		return nil, nil
	}
	return r.load(ctx, EssayKey(id))
}

func (r *Repository) load(ctx context.Context, key string) (*domain.EssayData, error) {
	raw, err := r.store.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Key: key, Err: err}
	}

	var data domain.EssayData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		r.logger.Warn("skipping unreadable essay", "key", key, "err", err)
		return nil, nil
	}
	if data.Essay.ID == "" {
		r.logger.Warn("skipping essay without id", "key", key)
		return nil, nil
	}
	return &data, nil
}

// SaveEssayData persists data. On success data.Essay.LastUpdatedAt holds the
// stored timestamp, which is always later than the previous one. A completed
// essay stays completed even if data says otherwise.
func (r *Repository) SaveEssayData(ctx context.Context, data *domain.EssayData) error {
	if data == nil || data.Essay.ID == "" {
		return fmt.Errorf("save essay: %w", domain.ErrEssayNotFound)
	}
	return r.locks.WithLock(ctx, data.Essay.ID, func(ctx context.Context) error {
		return r.save(ctx, data)
	})
}

// save must run under the essay lock.
func (r *Repository) save(ctx context.Context, data *domain.EssayData) error {
	out := data.Clone()

	stamp := r.now()
	if !stamp.After(data.Essay.LastUpdatedAt) {
		stamp = data.Essay.LastUpdatedAt.Add(time.Millisecond)
	}
	stored, err := r.load(ctx, EssayKey(data.Essay.ID))
	if err != nil {
		return err
	}
	if stored != nil {
		if !stamp.After(stored.Essay.LastUpdatedAt) {
			stamp = stored.Essay.LastUpdatedAt.Add(time.Millisecond)
		}
		if stored.Essay.IsCompleted {
			out.Essay.IsCompleted = true
		}
	}
	out.Essay.LastUpdatedAt = stamp

	if err := r.write(ctx, out); err != nil {
		return err
	}
	data.Essay.LastUpdatedAt = stamp
	data.Essay.IsCompleted = out.Essay.IsCompleted
	return nil
}

func (r *Repository) write(ctx context.Context, data *domain.EssayData) error {
	key := EssayKey(data.Essay.ID)
	raw, err := json.Marshal(data.Prune())
	if err != nil {
		return &domain.StorageError{Op: "encode", Key: key, Err: err}
	}
	if err := r.store.Set(ctx, key, string(raw)); err != nil {
		return &domain.StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Update loads essay id, applies fn and saves the result, all under the essay
// lock. Nothing is written when fn reports no change. It returns the document
// as stored.
func (r *Repository) Update(ctx context.Context, id string, fn func(*domain.EssayData) bool) (*domain.EssayData, error) {
	var data *domain.EssayData
	err := r.locks.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		data, err = r.GetEssayData(ctx, id)
		if err != nil {
			return err
		}
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrEssayNotFound, id)
		}
		if !fn(data) {
			return nil
		}
		return r.save(ctx, data)
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// DeleteEssay removes the essay and its draft snapshots. If it was the active
// essay of this session, the pointer is cleared.
func (r *Repository) DeleteEssay(ctx context.Context, id string) error {
	return r.locks.WithLock(ctx, id, func(ctx context.Context) error {
		for _, key := range []string{EssayKey(id), DraftsKey(id)} {
			if err := r.store.Remove(ctx, key); err != nil {
				return &domain.StorageError{Op: "remove", Key: key, Err: err}
			}
		}
		active, err := r.GetActiveEssay(ctx)
		if err != nil {
			return err
		}
		if active == id {
			return r.ClearActiveEssay(ctx)
		}
		return nil
	})
}

// SetActiveEssay points this session at essay id.
func (r *Repository) SetActiveEssay(ctx context.Context, id string) error {
	key := r.session.ActiveKey()
	if err := r.store.Set(ctx, key, id); err != nil {
		return &domain.StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// GetActiveEssay returns the active essay id of this session, or "" if none.
func (r *Repository) GetActiveEssay(ctx context.Context) (string, error) {
	key := r.session.ActiveKey()
	id, err := r.store.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", &domain.StorageError{Op: "get", Key: key, Err: err}
	}
	return id, nil
}

// ClearActiveEssay removes this session's active pointer.
func (r *Repository) ClearActiveEssay(ctx context.Context) error {
	key := r.session.ActiveKey()
	if err := r.store.Remove(ctx, key); err != nil {
		return &domain.StorageError{Op: "remove", Key: key, Err: err}
	}
	return nil
}

// UpdateEssayStep records step as the current step of essay id.
func (r *Repository) UpdateEssayStep(ctx context.Context, id string, step domain.Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", domain.ErrInvalidStep, int(step))
	}
	return r.modify(ctx, id, func(e *domain.Essay) {
		e.CurrentStep = step
	})
}

// CompleteEssay marks essay id as completed. Completion is never undone.
func (r *Repository) CompleteEssay(ctx context.Context, id string) error {
	return r.modify(ctx, id, func(e *domain.Essay) {
		e.IsCompleted = true
	})
}

func (r *Repository) modify(ctx context.Context, id string, fn func(*domain.Essay)) error {
	return r.locks.WithLock(ctx, id, func(ctx context.Context) error {
		data, err := r.GetEssayData(ctx, id)
		if err != nil {
			return err
		}
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrEssayNotFound, id)
		}
		fn(&data.Essay)
		return r.save(ctx, data)
	})
}

// SaveDraftSnapshot appends a snapshot of content to the drafts of essay id.
func (r *Repository) SaveDraftSnapshot(ctx context.Context, id, content string) (domain.DraftSnapshot, error) {
	var snap domain.DraftSnapshot
	err := r.locks.WithLock(ctx, id, func(ctx context.Context) error {
		data, err := r.GetEssayData(ctx, id)
		if err != nil {
			return err
		}
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrEssayNotFound, id)
		}
		snaps, err := r.GetDraftSnapshots(ctx, id)
		if err != nil {
			return err
		}

		snap = domain.DraftSnapshot{
			Content:   content,
			CreatedAt: r.now(),
			Title:     data.Essay.Title,
		}
		snaps = append(snaps, snap)

		key := DraftsKey(id)
		raw, err := json.Marshal(snaps)
		if err != nil {
			return &domain.StorageError{Op: "encode", Key: key, Err: err}
		}
		if err := r.store.Set(ctx, key, string(raw)); err != nil {
			return &domain.StorageError{Op: "set", Key: key, Err: err}
		}
		return nil
	})
	return snap, err
}

// GetDraftSnapshots returns the snapshots of essay id, oldest first.
// An unreadable snapshot list is reported as empty.
func (r *Repository) GetDraftSnapshots(ctx context.Context, id string) ([]domain.DraftSnapshot, error) {
	key := DraftsKey(id)
	raw, err := r.store.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Key: key, Err: err}
	}
	var snaps []domain.DraftSnapshot
	if err := json.Unmarshal([]byte(raw), &snaps); err != nil {
		r.logger.Warn("ignoring unreadable draft snapshots", "key", key, "err", err)
		return nil, nil
	}
	return snaps, nil
}
