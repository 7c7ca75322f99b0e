package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKVStoreContract runs a suite of tests to verify that a KVStore implementation
// adheres to the defined interface contract.
func RunKVStoreContract(t *testing.T, store KVStore) {
	ctx := context.Background()
	prefix := "contract_" + time.Now().Format("20060102150405") + "_"

	t.Run("Set and Get", func(t *testing.T) {
		key := prefix + "doc"
		value := `{"essay":{"id":"1","title":"Ünïcode ✓"}}`

		require.NoError(t, store.Set(ctx, key, value), "Set should not return error")

		got, err := store.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, value, got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		key := prefix + "overwrite"
		require.NoError(t, store.Set(ctx, key, "first"))
		require.NoError(t, store.Set(ctx, key, "second"))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", got)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, prefix+"missing")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("Remove", func(t *testing.T) {
		key := prefix + "remove"
		require.NoError(t, store.Set(ctx, key, "v"))

		require.NoError(t, store.Remove(ctx, key), "Remove should not return error")

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound, "Get after Remove should return ErrKeyNotFound")

		assert.NoError(t, store.Remove(ctx, key), "Removing a missing key is not an error")
	})

	t.Run("Keys", func(t *testing.T) {
		var keys []string
		for i := 0; i < 3; i++ {
			key := fmt.Sprintf("%skeys_%d", prefix, i)
			keys = append(keys, key)
			require.NoError(t, store.Set(ctx, key, "v"))
		}
		defer func() {
			for _, k := range keys {
				_ = store.Remove(ctx, k)
			}
		}()

		listed, err := store.Keys(ctx)
		require.NoError(t, err)
		for _, k := range keys {
			assert.Contains(t, listed, k)
		}
	})
}
