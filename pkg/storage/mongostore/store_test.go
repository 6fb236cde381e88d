package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/goliatone/go-gridlayout/components/layout"
)

func TestDocumentRoundTrip(t *testing.T) {
	key := layout.PageKey{ClientID: "acme", PageID: "overview"}
	cfg := layout.GenerateDefaultLayout([]layout.WidgetDefinition{
		{WidgetID: "kpis", WidgetType: layout.WidgetKPISection, DefaultWidth: 12, DefaultHeight: 200},
		{WidgetID: "funnel", WidgetType: layout.WidgetFunnelChart, DefaultWidth: 6, DefaultHeight: 300},
	})
	cfg.GridDensity = layout.DensitySpacious
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))

	doc, err := newDocument(key, cfg, now)
	require.NoError(t, err)
	assert.Equal(t, "acme::overview", doc.ID)
	assert.Equal(t, "spacious", doc.GridDensity)
	assert.Equal(t, time.UTC, doc.UpdatedAt.Location())

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded document
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	got, err := decoded.config()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cfg.Widgets, got.Widgets)
	assert.Equal(t, layout.DensitySpacious, got.GridDensity)
}

func TestDocumentWithEmptyConfig(t *testing.T) {
	got, err := document{LayoutConfig: ""}.config()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConnectRequiresURI(t *testing.T) {
	_, err := Connect(t.Context(), Options{})
	assert.Error(t, err)
}
