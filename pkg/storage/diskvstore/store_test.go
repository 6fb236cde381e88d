package diskvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-gridlayout/components/layout"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store, err := New(base)
	require.NoError(t, err)

	key := layout.PageKey{ClientID: "acme/eu", PageID: "q3 overview"}
	cfg, err := store.FetchLayout(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	saved := layout.GenerateDefaultLayout([]layout.WidgetDefinition{
		{WidgetID: "summary", WidgetType: layout.WidgetPageSummary, DefaultWidth: 12, DefaultHeight: 200},
		{WidgetID: "graph", WidgetType: layout.WidgetGraphCard, DefaultWidth: 6, DefaultHeight: 300},
	})
	saved.GridDensity = layout.DensityCompact
	require.NoError(t, store.SaveLayout(ctx, key, saved))

	_, err = os.Stat(filepath.Join(base, encodePart(key.ClientID), encodePart(key.PageID)+".json"))
	require.NoError(t, err, "layouts live under a per-client directory")

	cfg, err = store.FetchLayout(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, saved.Widgets, cfg.Widgets)
	assert.Equal(t, layout.DensityCompact, cfg.GridDensity)

	assert.Equal(t, []layout.PageKey{key}, store.Keys(ctx))

	require.NoError(t, store.ResetLayout(ctx, key))
	cfg, err = store.FetchLayout(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	require.NoError(t, store.ResetLayout(ctx, key), "reset of a missing layout is a no-op")
}

func TestKeyTransformsAreInverse(t *testing.T) {
	raw := toKey(layout.PageKey{ClientID: "c-1", PageID: "p~2"})
	assert.Equal(t, raw, pathToKeyTransform(keyToPathTransform(raw)))

	key, ok := fromKey(raw)
	require.True(t, ok)
	assert.Equal(t, layout.PageKey{ClientID: "c-1", PageID: "p~2"}, key)
}

func TestNewRequiresBasePath(t *testing.T) {
	_, err := New(" ")
	assert.Error(t, err)
}
