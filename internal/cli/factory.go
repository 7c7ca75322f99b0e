// Package cli builds the stores, editors and servers behind the quill commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/internal/config"
	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/adapters/file"
	quillhttp "github.com/aretw0/quill/pkg/adapters/http"
	"github.com/aretw0/quill/pkg/adapters/memory"
	"github.com/aretw0/quill/pkg/adapters/redis"
	"github.com/aretw0/quill/pkg/adapters/sqlite"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/persistence/middleware"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/aretw0/quill/pkg/repository"
	"github.com/aretw0/quill/pkg/session"
	"github.com/aretw0/quill/pkg/workflow"
)

// Backend is an opened key-value store with its optional cross-process locker.
type Backend struct {
	Store  ports.KVStore
	Locker ports.DistributedLocker
	closer io.Closer
}

// Close releases the backend connection, if any.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// OpenBackend opens the configured store and wraps it in the encryption and
// logging middlewares.
func OpenBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Backend, error) {
	b := &Backend{}

	var base ports.KVStore
	switch cfg.Store.Backend {
	case config.BackendMemory:
		base = memory.NewStore()
	case config.BackendFile:
		base = file.New(cfg.Store.Dir)
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.Store.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		base, b.closer = s, s
	case config.BackendRedis:
		rc := cfg.Store.Redis
		s := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix))
		if err := s.Client().Ping(ctx).Err(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", rc.Addr, err)
		}
		base, b.closer = s, s
		if rc.Lock {
			b.Locker = redis.NewLocker(s.Client(), rc.Prefix)
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	var mws []middleware.Middleware
	if cfg.Store.LogOperations {
		mws = append(mws, middleware.NewLoggingMiddleware(logger))
	}
	if cfg.Store.EncryptionKey != "" {
		enc, err := encryption(cfg.Store)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		mws = append(mws, enc)
	}
	b.Store = middleware.Chain(base, mws...)

	logger.Debug("store opened", "backend", cfg.Store.Backend, "encrypted", cfg.Store.EncryptionKey != "", "locked", b.Locker != nil)
	return b, nil
}

func encryption(cfg config.Store) (middleware.Middleware, error) {
	active, err := config.DecodeKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	var fallback [][]byte
	for _, k := range cfg.FallbackKeys {
		key, err := config.DecodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("fallback key: %w", err)
		}
		fallback = append(fallback, key)
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:      active,
		FallbackKeys:   fallback,
		AllowPlaintext: true,
	})
}

// Session returns the configured session namespace.
func Session(cfg config.Config) session.Context {
	if cfg.Session == "" {
		return session.Default()
	}
	return session.New(cfg.Session)
}

// NewLocks builds the save lock manager, distributed when the backend has a locker.
func NewLocks(b *Backend, logger *slog.Logger) *session.Locks {
	opts := []session.Option{session.WithLogger(logger)}
	if b.Locker != nil {
		opts = append(opts, session.WithLocker(b.Locker))
	}
	return session.NewLocks(opts...)
}

// NewGateway returns the HTTP suggestion client, or nil without an endpoint.
func NewGateway(cfg config.Suggest) ports.SuggestionGateway {
	if cfg.Endpoint == "" {
		return nil
	}
	return quillhttp.NewClient(cfg.Endpoint, quillhttp.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
}

// NewEditor creates an editor over the backend using every configured setting.
func NewEditor(cfg config.Config, b *Backend, logger *slog.Logger, hooks domain.LifecycleHooks) *quill.Editor {
	opts := []quill.Option{
		quill.WithLogger(logger),
		quill.WithSession(Session(cfg)),
		quill.WithLocks(NewLocks(b, logger)),
		quill.WithThresholds(cfg.Workflow),
		quill.WithAutosave(cfg.Autosave.Debounce, cfg.Autosave.Interval),
		quill.WithLifecycleHooks(hooks),
	}
	if g := NewGateway(cfg.Suggest); g != nil {
		opts = append(opts, quill.WithGateway(g))
	}
	return quill.New(b.Store, opts...)
}

// NewService creates the repository and a stateless engine for request
// handlers, which load and save a document per call.
func NewService(cfg config.Config, b *Backend, logger *slog.Logger, hooks domain.LifecycleHooks) (*repository.Repository, *workflow.Engine) {
	repo := repository.New(b.Store,
		repository.WithSession(Session(cfg)),
		repository.WithLocks(NewLocks(b, logger)),
		repository.WithLogger(logger),
	)
	engine := workflow.NewEngine(repo,
		workflow.WithThresholds(cfg.Workflow),
		workflow.WithHooks(hooks),
		workflow.WithLogger(logger),
	)
	return repo, engine
}

// NewLogger creates the process logger; debug forces the debug level.
func NewLogger(cfg config.Log, debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(logging.ParseLevel(cfg.Level))
}

// DebugHooks logs every lifecycle event at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("enter step", "essay_id", e.EssayID, "step", e.Step)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("leave step", "essay_id", e.EssayID, "step", e.Step)
		},
		OnSave: func(ctx context.Context, e *domain.SaveEvent) {
			if e.Err != nil {
				logger.Debug("save failed", "essay_id", e.EssayID, "trigger", e.Trigger, "err", e.Err)
				return
			}
			logger.Debug("saved", "essay_id", e.EssayID, "trigger", e.Trigger, "duration", e.Duration)
		},
		OnComplete: func(ctx context.Context, e *domain.EventBase) {
			logger.Debug("essay completed", "essay_id", e.EssayID)
		},
		OnSuggestion: func(ctx context.Context, e *domain.SuggestionEvent) {
			logger.Debug("suggestions received", "essay_id", e.EssayID, "count", e.Count, "error", e.IsError)
		},
	}
}

// IsUsageError reports errors caused by the user's request rather than the system.
func IsUsageError(err error) bool {
	return errors.Is(err, domain.ErrEssayNotFound) ||
		errors.Is(err, domain.ErrInvalidStep) ||
		errors.Is(err, workflow.ErrCannotAdvance) ||
		errors.Is(err, workflow.ErrMissingPrerequisites) ||
		errors.Is(err, quill.ErrNoEssay)
}
