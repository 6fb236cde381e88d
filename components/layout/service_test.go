package layout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepository struct {
	fetchErr error
	saveErr  error
	saves    int
}

func (r *failingRepository) FetchLayout(context.Context, PageKey) (*PageLayoutConfig, error) {
	return nil, r.fetchErr
}

func (r *failingRepository) SaveLayout(context.Context, PageKey, PageLayoutConfig) error {
	r.saves++
	return r.saveErr
}

func (r *failingRepository) ResetLayout(context.Context, PageKey) error { return nil }

var overviewKey = PageKey{ClientID: "acme", PageID: "overview"}

func TestServiceOpenSessionMergesSavedLayout(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	require.NoError(t, repo.SaveLayout(ctx, overviewKey, PageLayoutConfig{
		Version: 1,
		Widgets: []WidgetPosition{
			{WidgetID: "B", Row: 0, Col: 0, Width: 12, Height: 150},
			{WidgetID: "gone", Row: 1, Col: 0, Width: 12, Height: 150},
		},
		GridDensity: DensitySpacious,
	}))
	svc := NewService(Options{Repository: repo})

	store, err := svc.OpenSession(ctx, overviewKey, threeWidgets())
	require.NoError(t, err)
	widgets := store.Widgets()

	assert.Equal(t, []string{"A", "B", "C"}, ids(widgets))
	assert.Equal(t, 1, widgets[0].Row, "new widget below saved rows")
	assert.Equal(t, WidgetPosition{WidgetID: "B", WidgetType: WidgetGraphCard, Row: 0, Col: 0, Width: 12, Height: 150}, widgets[1])
	assert.Equal(t, 2, widgets[2].Row)
	assert.Equal(t, DensitySpacious, store.GridDensity())

	again, ok := svc.Session(overviewKey)
	require.True(t, ok)
	assert.Same(t, store, again)
}

func TestServiceFetchFailureFallsBackToAutoFlow(t *testing.T) {
	svc := NewService(Options{Repository: &failingRepository{fetchErr: errors.New("db down")}})
	store, err := svc.OpenSession(context.Background(), overviewKey, threeWidgets())
	require.NoError(t, err)
	assert.Equal(t, AutoFlow(threeWidgets()), store.Widgets())
}

func TestServiceCommitPersistsAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	hook := NewBroadcastHook()
	events, cancel := hook.Subscribe()
	defer cancel()
	svc := NewService(Options{Repository: repo, ChangeHook: hook})

	store, err := svc.OpenSession(ctx, overviewKey, threeWidgets())
	require.NoError(t, err)
	require.NoError(t, store.HideWidget(ctx, "A"))
	require.NoError(t, store.ReorderWidgetsByIndex(ctx, "C", 0))
	require.NoError(t, store.CommitChanges(ctx))

	record, ok := repo.Record(overviewKey)
	require.True(t, ok)
	assert.Equal(t, []string{"C", "B"}, record.WidgetOrder)
	assert.Empty(t, record.HiddenWidgets)

	select {
	case event := <-events:
		assert.Equal(t, "commit", event.Reason)
		assert.Equal(t, overviewKey, event.Key)
		assert.Len(t, event.Layout.Widgets, 2)
	default:
		t.Fatal("expected commit event")
	}

	reopened, err := svc.OpenSession(ctx, overviewKey, threeWidgets())
	require.NoError(t, err)
	widgets := reopened.Widgets()
	assert.Equal(t, []string{"A", "B", "C"}, ids(widgets))
	assert.Equal(t, 1, widgets[0].Row, "hidden widget was not saved and returns as new")
	assert.Equal(t, 4, widgets[0].Width)
}

func TestServiceSaveFailureSurfacesToStore(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepository{saveErr: errors.New("write failed")}
	svc := NewService(Options{Repository: repo})
	store, err := svc.OpenSession(ctx, overviewKey, threeWidgets())
	require.NoError(t, err)

	require.NoError(t, store.UpdateWidgetSize(ctx, "A", 8, 100))
	assert.Error(t, store.CommitChanges(ctx))
	assert.True(t, store.HasPendingChanges())
	assert.Equal(t, 1, repo.saves)
}

func TestServiceResetLayout(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	svc := NewService(Options{Repository: repo})
	store, err := svc.OpenSession(ctx, overviewKey, threeWidgets())
	require.NoError(t, err)
	require.NoError(t, store.UpdateWidgetPosition(ctx, "A", 4, 4))
	require.NoError(t, store.CommitChanges(ctx))

	require.NoError(t, svc.ResetLayout(ctx, overviewKey))
	_, ok := repo.Record(overviewKey)
	assert.False(t, ok)
	assert.Equal(t, AutoFlow(threeWidgets()), store.Widgets())
	assert.False(t, store.HasPendingChanges())
}

func TestServiceRejectsInvalidKey(t *testing.T) {
	svc := NewService(Options{})
	_, err := svc.OpenSession(context.Background(), PageKey{ClientID: "acme"}, threeWidgets())
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, svc.ResetLayout(context.Background(), PageKey{}), ErrInvalidKey)
}

func TestServiceReadsLegacyRecords(t *testing.T) {
	repo := NewInMemoryRepository()
	row, col, width := 0, 0, 12
	repo.Seed(overviewKey, StoredLayout{
		WidgetPositions: map[string]LegacyPosition{
			"C": {GridRow: &row, GridColumn: &col, GridWidth: &width},
		},
	}, "")
	svc := NewService(Options{Repository: repo})

	store, err := svc.OpenSession(context.Background(), overviewKey, threeWidgets())
	require.NoError(t, err)
	pos, ok := store.WidgetPosition("C")
	require.True(t, ok)
	assert.Equal(t, WidgetPosition{WidgetID: "C", WidgetType: WidgetPageSummary, Row: 0, Col: 0, Width: 12, Height: 200}, pos)
	a, _ := store.WidgetPosition("A")
	assert.Equal(t, 1, a.Row)
}
