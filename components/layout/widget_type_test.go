package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWidgetTypeAcceptsSpellings(t *testing.T) {
	cases := map[string]WidgetType{
		"kpi-card":          WidgetKPICard,
		"time_series_chart": WidgetTimeSeriesChart,
		"successStories":    WidgetSuccessStories,
		"OutcomesSection":   WidgetOutcomesSection,
		" section-generic ": WidgetSectionGeneric,
	}
	for input, want := range cases {
		got, err := ParseWidgetType(input)
		require.NoErrorf(t, err, "input %q", input)
		assert.Equal(t, want, got)
	}
}

func TestParseWidgetTypeRejectsUnknown(t *testing.T) {
	_, err := ParseWidgetType("pie-chart")
	assert.ErrorIs(t, err, ErrUnknownWidgetType)

	_, err = ParseWidgetType("")
	assert.ErrorIs(t, err, ErrUnknownWidgetType)
}

func TestMinSizeCoversEveryType(t *testing.T) {
	for _, kind := range WidgetTypes() {
		size := kind.MinSize()
		assert.Positivef(t, size.Width, "%s width", kind)
		assert.Positivef(t, size.Height, "%s height", kind)
	}
	assert.Equal(t, MinSize{Width: 2, Height: 80}, WidgetKPICard.MinSize())
	assert.Equal(t, MinSize{Width: 4, Height: 200}, WidgetFunnelChart.MinSize())
	assert.Equal(t, WidgetSectionGeneric.MinSize(), WidgetType("unknown").MinSize())
}
