package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/quill/pkg/domain"
)

// DefaultQuota mirrors the per-origin limit browsers apply to local storage.
const DefaultQuota = 5 * 1024 * 1024

// Store implements ports.KVStore in memory.
// Safe for concurrent use.
type Store struct {
	data  map[string]string
	used  int
	quota int
	mu    sync.RWMutex
}

// Option configures the Store.
type Option func(*Store)

// WithQuota limits the total size (keys plus values, in bytes) the store accepts.
// Zero disables the limit.
func WithQuota(bytes int) Option {
	return func(s *Store) {
		s.quota = bytes
	}
}

// NewStore creates a new in-memory store without a quota.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return v, nil
}

// Set stores value under key, enforcing the quota.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := s.used + len(value)
	if old, ok := s.data[key]; ok {
		used -= len(old)
	} else {
		used += len(key)
	}
	if s.quota > 0 && used > s.quota {
		return fmt.Errorf("setting %q (%d of %d bytes): %w", key, used, s.quota, domain.ErrQuotaExceeded)
	}

	s.data[key] = value
	s.used = used
	return nil
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.data[key]; ok {
		s.used -= len(key) + len(old)
		delete(s.data, key)
	}
	return nil
}

// Keys returns all stored keys in lexical order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Used reports how many bytes the store currently holds.
func (s *Store) Used() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}
