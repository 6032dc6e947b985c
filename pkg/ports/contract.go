package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTraceCacheContract runs a suite of tests to verify that a TraceCache implementation
// adheres to the defined interface contract.
func RunTraceCacheContract(t *testing.T, cache TraceCache) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405")

	trace, err := domain.NewTrace([]domain.Step{
		{Description: "start", Payload: map[string]any{"lo": 0, "hi": 4}},
		{Description: "found", Payload: map[string]any{"lo": 2, "hi": 2}},
	})
	require.NoError(t, err)

	t.Run("Put and Get", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, trace), "Put should not return error")

		loaded, err := cache.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, trace.Len(), loaded.Len())
		assert.Equal(t, "start", loaded.At(0).Description)
		assert.Equal(t, "found", loaded.At(1).Description)
		// Serializing caches turn numbers into float64, so only check presence.
		assert.NotNil(t, loaded.At(1).Payload)
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := cache.Get(ctx, "missing-"+key)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("Overwrite", func(t *testing.T) {
		single, err := domain.NewTrace([]domain.Step{{Description: "only"}})
		require.NoError(t, err)
		require.NoError(t, cache.Put(ctx, key, single))

		loaded, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.Len())
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, trace))
		require.NoError(t, cache.Delete(ctx, key), "Delete should not return error")

		_, err := cache.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrCacheMiss, "Get after Delete should return ErrCacheMiss")

		assert.NoError(t, cache.Delete(ctx, key), "Deleting twice is not an error")
	})
}
