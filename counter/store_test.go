package counter

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "counter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreIncrement(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	n, err := s.Count(ctx, SiteCounter)
	require.NoError(t, err)
	assert.Zero(t, n)

	for want := int64(1); want <= 3; want++ {
		got, err := s.Increment(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	n, err = s.Count(ctx, SiteCounter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestStoreCountersAreIndependent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "a")
	require.NoError(t, err)
	n, err := s.Add(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Count(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStoreConcurrentIncrements(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	const workers, each = 8, 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				_, err := s.Increment(ctx)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	n, err := s.Count(ctx, SiteCounter)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*each), n)
}
