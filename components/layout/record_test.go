package layout

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStoredLayoutCurrentShape(t *testing.T) {
	payload := `{"version":1,"widgets":[{"widgetId":"kpis","widgetType":"kpi-section","row":0,"col":0,"width":12,"height":120}]}`
	cfg, err := DecodeStoredLayout([]byte(payload), DensityCompact)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, DensityCompact, cfg.GridDensity)
	assert.Equal(t, []WidgetPosition{{WidgetID: "kpis", WidgetType: WidgetKPISection, Width: 12, Height: 120}}, cfg.Widgets)
}

func TestDecodeStoredLayoutLegacyShape(t *testing.T) {
	payload := `{"widgetPositions":{
		"summary":{"gridRow":1,"gridColumn":6,"gridWidth":6,"gridHeight":250},
		"kpis":{"gridRow":0,"gridColumn":0},
		"funnel":{}
	},"widgetOrder":["kpis","summary","funnel"]}`
	cfg, err := DecodeStoredLayout([]byte(payload), "")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 0, cfg.Version)
	assert.Equal(t, DensityNormal, cfg.GridDensity)
	assert.Equal(t, []WidgetPosition{
		{WidgetID: "kpis", WidgetType: WidgetSectionGeneric, Row: 0, Col: 0, Width: 6, Height: 200},
		{WidgetID: "summary", WidgetType: WidgetSectionGeneric, Row: 1, Col: 6, Width: 6, Height: 250},
		{WidgetID: "funnel", WidgetType: WidgetSectionGeneric, Row: 0, Col: 0, Width: 6, Height: 200},
	}, cfg.Widgets)
}

func TestDecodeStoredLayoutWithoutKnownShape(t *testing.T) {
	cfg, err := DecodeStoredLayout([]byte(`{"hiddenWidgets":[]}`), "")
	require.NoError(t, err)
	assert.Nil(t, cfg)

	cfg, err = DecodeStoredLayout([]byte(`null`), "")
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestDecodeStoredLayoutRejectsInvalidDocument(t *testing.T) {
	_, err := DecodeStoredLayout([]byte(`{"version":1,"widgets":[{"widgetId":"a","row":0,"col":0,"width":13,"height":100}]}`), "")
	assert.Error(t, err)

	_, err = DecodeStoredLayout([]byte(`{"version":"one"}`), "")
	assert.Error(t, err)

	_, err = DecodeStoredLayout([]byte(`{`), "")
	assert.Error(t, err)
}

func TestStoredLayoutDualWrite(t *testing.T) {
	cfg := PageLayoutConfig{
		Version: 1,
		Widgets: []WidgetPosition{
			{WidgetID: "a", WidgetType: WidgetKPICard, Row: 0, Col: 0, Width: 4, Height: 80},
			{WidgetID: "b", WidgetType: WidgetGraphCard, Row: 0, Col: 4, Width: 8, Height: 150},
		},
	}
	data, err := MarshalStoredLayout(cfg)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []any{"a", "b"}, raw["widgetOrder"])
	assert.Equal(t, []any{}, raw["hiddenWidgets"])
	positions := raw["widgetPositions"].(map[string]any)
	assert.Equal(t, map[string]any{
		"order": float64(1), "gridRow": float64(0), "gridColumn": float64(4), "gridWidth": float64(8), "gridHeight": float64(150),
	}, positions["b"])

	decoded, err := DecodeStoredLayout(data, DensityNormal)
	require.NoError(t, err)
	assert.Equal(t, cfg.Widgets, decoded.Widgets)
}

func TestLegacyReaderSeesDualWrittenPositions(t *testing.T) {
	record := EncodeStoredLayout(PageLayoutConfig{
		Version: 1,
		Widgets: []WidgetPosition{
			{WidgetID: "b", Row: 1, Col: 0, Width: 12, Height: 100},
			{WidgetID: "a", Row: 0, Col: 0, Width: 6, Height: 100},
		},
	})
	record.Version = 0
	record.Widgets = nil

	cfg := record.Normalize("")
	require.NotNil(t, cfg)
	require.Len(t, cfg.Widgets, 2)
	assert.Equal(t, "b", cfg.Widgets[0].WidgetID, "order field wins over grid position")
	assert.Equal(t, 12, cfg.Widgets[0].Width)
}
