package ports

import "context"

// KVStore is a string-keyed value store. Documents are written wholesale, so
// the store never needs to understand their contents.
type KVStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrKeyNotFound if the key holds no value.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	// Stores with limited capacity return an error wrapping domain.ErrQuotaExceeded.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys enumerates every key currently stored.
	Keys(ctx context.Context) ([]string, error)
}
