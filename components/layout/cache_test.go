package layout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepository struct {
	*InMemoryRepository
	fetches int
	fail    error
}

func (r *countingRepository) FetchLayout(ctx context.Context, key PageKey) (*PageLayoutConfig, error) {
	r.fetches++
	if r.fail != nil {
		return nil, r.fail
	}
	return r.InMemoryRepository.FetchLayout(ctx, key)
}

func TestCachedRepositoryMemoizesFetches(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepository{InMemoryRepository: NewInMemoryRepository()}
	cache := NewCachedRepository(inner, time.Minute)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cfg, err := cache.FetchLayout(ctx, overviewKey)
	require.NoError(t, err)
	assert.Nil(t, cfg)
	_, _ = cache.FetchLayout(ctx, overviewKey)
	assert.Equal(t, 1, inner.fetches, "misses are cached")

	saved := GenerateDefaultLayout(threeWidgets())
	require.NoError(t, cache.SaveLayout(ctx, overviewKey, saved))
	cfg, err = cache.FetchLayout(ctx, overviewKey)
	require.NoError(t, err)
	assert.Equal(t, saved.Widgets, cfg.Widgets)
	assert.Equal(t, 1, inner.fetches, "save refreshes the entry")

	cfg.Widgets[0].Width = 11
	again, _ := cache.FetchLayout(ctx, overviewKey)
	assert.Equal(t, 4, again.Widgets[0].Width, "callers get copies")

	now = now.Add(2 * time.Minute)
	_, _ = cache.FetchLayout(ctx, overviewKey)
	assert.Equal(t, 2, inner.fetches, "expired entries are refetched")

	require.NoError(t, cache.ResetLayout(ctx, overviewKey))
	cfg, _ = cache.FetchLayout(ctx, overviewKey)
	assert.Nil(t, cfg)
	assert.Equal(t, 3, inner.fetches)
}

func TestCachedRepositoryDoesNotCacheErrors(t *testing.T) {
	inner := &countingRepository{InMemoryRepository: NewInMemoryRepository(), fail: errors.New("offline")}
	cache := NewCachedRepository(inner, time.Minute)
	_, err := cache.FetchLayout(context.Background(), overviewKey)
	assert.Error(t, err)
	inner.fail = nil
	_, err = cache.FetchLayout(context.Background(), overviewKey)
	assert.NoError(t, err)
	assert.Equal(t, 2, inner.fetches)
}

func TestCachedRepositoryDisabled(t *testing.T) {
	inner := &countingRepository{InMemoryRepository: NewInMemoryRepository()}
	cache := NewCachedRepository(inner, 0)
	_, _ = cache.FetchLayout(context.Background(), overviewKey)
	_, _ = cache.FetchLayout(context.Background(), overviewKey)
	assert.Equal(t, 2, inner.fetches)
	assert.Same(t, inner, cache.Unwrap())
}
