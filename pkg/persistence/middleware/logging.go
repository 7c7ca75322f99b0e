package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/quill/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.KVStore
	logger *slog.Logger
}

// NewLoggingMiddleware logs every store operation at debug level and failures at warn.
// Values are never logged, only their size.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.KVStore) ports.KVStore {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) log(ctx context.Context, op, key string, start time.Time, err error, attrs ...any) {
	attrs = append(attrs, "op", op, "key", key, "duration", time.Since(start))
	if err != nil {
		m.logger.WarnContext(ctx, "store operation failed", append(attrs, "err", err)...)
		return
	}
	m.logger.DebugContext(ctx, "store operation", attrs...)
}

func (m *loggingMiddleware) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	v, err := m.next.Get(ctx, key)
	m.log(ctx, "get", key, start, err, "size", len(v))
	return v, err
}

func (m *loggingMiddleware) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := m.next.Set(ctx, key, value)
	m.log(ctx, "set", key, start, err, "size", len(value))
	return err
}

func (m *loggingMiddleware) Remove(ctx context.Context, key string) error {
	start := time.Now()
	err := m.next.Remove(ctx, key)
	m.log(ctx, "remove", key, start, err)
	return err
}

func (m *loggingMiddleware) Keys(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := m.next.Keys(ctx)
	m.log(ctx, "keys", "", start, err, "count", len(keys))
	return keys, err
}
