package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-gridlayout/components/layout"
)

var acmeOverview = layout.PageKey{ClientID: "acme", PageID: "overview"}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "layouts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleLayout() layout.PageLayoutConfig {
	return layout.GenerateDefaultLayout([]layout.WidgetDefinition{
		{WidgetID: "stats", WidgetType: layout.WidgetKPICard, DefaultWidth: 3, DefaultHeight: 150},
		{WidgetID: "chart", WidgetType: layout.WidgetTimeSeriesChart, DefaultWidth: 6, DefaultHeight: 300},
	})
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	cfg, err := store.FetchLayout(ctx, acmeOverview)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	saved := sampleLayout()
	require.NoError(t, store.SaveLayout(ctx, acmeOverview, saved))

	cfg, err = store.FetchLayout(ctx, acmeOverview)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, saved.Widgets, cfg.Widgets)
	assert.Equal(t, layout.DensityNormal, cfg.GridDensity)

	other, err := store.FetchLayout(ctx, layout.PageKey{ClientID: "globex", PageID: "overview"})
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestStoreSaveUpdatesExistingRow(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first := sampleLayout()
	require.NoError(t, store.SaveLayout(ctx, acmeOverview, first))

	second := sampleLayout()
	second.Widgets[1].Width = 9
	second.GridDensity = layout.DensityCompact
	require.NoError(t, store.SaveLayout(ctx, acmeOverview, second))

	var rows int
	require.NoError(t, store.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM page_layouts`).Scan(&rows))
	assert.Equal(t, 1, rows)

	cfg, err := store.FetchLayout(ctx, acmeOverview)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Widgets[1].Width)
	assert.Equal(t, layout.DensityCompact, cfg.GridDensity)
}

func TestStoreResetAndSoftDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.SaveLayout(ctx, acmeOverview, sampleLayout()))
	require.NoError(t, store.SoftDelete(ctx, acmeOverview))

	cfg, err := store.FetchLayout(ctx, acmeOverview)
	require.NoError(t, err)
	assert.Nil(t, cfg, "soft-deleted rows are not returned")

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, store.SaveLayout(ctx, acmeOverview, sampleLayout()))
	require.NoError(t, store.ResetLayout(ctx, acmeOverview))

	var rows int
	require.NoError(t, store.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM page_layouts`).Scan(&rows))
	assert.Zero(t, rows)
}

func TestStoreReadsLegacyDocument(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	legacy := []byte(`{
		"widgetOrder": ["chart", "stats"],
		"hiddenWidgets": [],
		"widgetPositions": {
			"stats": {"order": 1, "gridRow": 0, "gridColumn": 6, "gridWidth": 3, "gridHeight": 150},
			"chart": {"order": 0, "gridRow": 0, "gridColumn": 0, "gridWidth": 6}
		}
	}`)
	require.NoError(t, store.SaveRaw(ctx, acmeOverview, legacy, layout.DensitySpacious))

	cfg, err := store.FetchLayout(ctx, acmeOverview)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Len(t, cfg.Widgets, 2)
	assert.Equal(t, "chart", cfg.Widgets[0].WidgetID)
	assert.Equal(t, 200, cfg.Widgets[0].Height)
	assert.Equal(t, "stats", cfg.Widgets[1].WidgetID)
	assert.Equal(t, layout.DensitySpacious, cfg.GridDensity)
}

func TestStoreRejectsInvalidKey(t *testing.T) {
	store := openTestStore(t)
	_, err := store.FetchLayout(context.Background(), layout.PageKey{ClientID: "acme"})
	assert.ErrorIs(t, err, layout.ErrInvalidKey)
}

func TestNewValidatesTableName(t *testing.T) {
	store := openTestStore(t)
	_, err := New(store.DB(), Options{Table: "layouts; DROP TABLE x"})
	assert.Error(t, err)
}

func TestNewUsesInjectedClock(t *testing.T) {
	ctx := context.Background()
	base := openTestStore(t)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store, err := New(base.DB(), Options{Now: func() time.Time { return fixed }})
	require.NoError(t, err)

	require.NoError(t, store.SaveLayout(ctx, acmeOverview, sampleLayout()))
	var updated string
	require.NoError(t, store.DB().QueryRowContext(ctx, `SELECT updated_at FROM page_layouts`).Scan(&updated))
	assert.Equal(t, "2026-03-01T09:00:00.000000000Z", updated)
}

func TestFetchLayoutPicksNewestLiveRow(t *testing.T) {
	ctx := context.Background()
	base := openTestStore(t)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 100_000_000, time.UTC)
	store, err := New(base.DB(), Options{Now: func() time.Time { return clock }})
	require.NoError(t, err)

	older := []byte(`{"version":1,"widgets":[{"widgetId":"stats","widgetType":"kpi-card","row":0,"col":0,"width":3,"height":150}]}`)
	require.NoError(t, store.SaveRaw(ctx, acmeOverview, older, layout.DensityNormal))

	// .12 must sort after .1 even though the shorter fraction is a prefix.
	clock = time.Date(2026, 3, 1, 9, 0, 0, 120_000_000, time.UTC)
	newer := []byte(`{"version":1,"widgets":[{"widgetId":"chart","widgetType":"time-series-chart","row":0,"col":0,"width":6,"height":300}]}`)
	require.NoError(t, store.SaveRaw(ctx, acmeOverview, newer, layout.DensityNormal))

	cfg, err := store.FetchLayout(ctx, acmeOverview)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Len(t, cfg.Widgets, 1)
	assert.Equal(t, "chart", cfg.Widgets[0].WidgetID)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b = $2", Postgres.rebind("a = ? AND b = ?"))
	assert.Equal(t, "a = ? AND b = ?", MySQL.rebind("a = ? AND b = ?"))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)
	_, err = ParseDialect("oracle")
	assert.Error(t, err)
}
