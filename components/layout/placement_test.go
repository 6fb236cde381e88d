package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defs(widths ...int) []WidgetDefinition {
	out := make([]WidgetDefinition, len(widths))
	for i, w := range widths {
		out[i] = WidgetDefinition{
			WidgetID:      string(rune('a' + i)),
			WidgetType:    WidgetSectionGeneric,
			DefaultWidth:  w,
			DefaultHeight: 100 + i,
		}
	}
	return out
}

func TestAutoFlowWrapsRows(t *testing.T) {
	got := AutoFlow(defs(6, 6, 12))
	require.Len(t, got, 3)

	assert.Equal(t, [2]int{0, 0}, [2]int{got[0].Row, got[0].Col})
	assert.Equal(t, [2]int{0, 6}, [2]int{got[1].Row, got[1].Col})
	assert.Equal(t, [2]int{1, 0}, [2]int{got[2].Row, got[2].Col})
	assert.Equal(t, 101, got[1].Height)
}

func TestAutoFlowRowsNeverExceedGrid(t *testing.T) {
	got := AutoFlow(defs(4, 5, 3, 7, 2, 12, 1, 11, 6))
	for row, width := range RowWidths(got) {
		assert.LessOrEqualf(t, width, GridColumns, "row %d overflows", row)
	}
	for i := 1; i < len(got); i++ {
		prev, curr := got[i-1], got[i]
		assert.True(t, curr.Row > prev.Row || (curr.Row == prev.Row && curr.Col > prev.Col),
			"widget %s not after %s", curr.WidgetID, prev.WidgetID)
	}
}

func TestAutoFlowEmpty(t *testing.T) {
	assert.Empty(t, AutoFlow(nil))
}

func TestRepackSkipsHiddenWidgets(t *testing.T) {
	widgets := []WidgetPosition{
		{WidgetID: "a", Width: 8, Row: 3, Col: 2},
		{WidgetID: "hidden", Width: 0, Row: 9, Col: 9},
		{WidgetID: "b", Width: 4, Row: 0, Col: 0},
		{WidgetID: "c", Width: 6},
	}
	got := Repack(widgets)

	assert.Equal(t, WidgetPosition{WidgetID: "a", Width: 8, Row: 0, Col: 0}, got[0])
	assert.Equal(t, widgets[1], got[1])
	assert.Equal(t, WidgetPosition{WidgetID: "b", Width: 4, Row: 0, Col: 8}, got[2])
	assert.Equal(t, WidgetPosition{WidgetID: "c", Width: 6, Row: 1, Col: 0}, got[3])
	assert.Equal(t, 3, widgets[0].Row, "input must not be mutated")
}
