package layout

func cloneWidgets(widgets []WidgetPosition) []WidgetPosition {
	if widgets == nil {
		return nil
	}
	out := make([]WidgetPosition, len(widgets))
	copy(out, widgets)
	return out
}

func indexOfWidget(widgets []WidgetPosition, widgetID string) int {
	for i, w := range widgets {
		if w.WidgetID == widgetID {
			return i
		}
	}
	return -1
}

// partitionVisible splits widgets into visible and hidden lists, preserving order.
func partitionVisible(widgets []WidgetPosition) (visible, hidden []WidgetPosition) {
	visible = make([]WidgetPosition, 0, len(widgets))
	for _, w := range widgets {
		if w.Hidden() {
			hidden = append(hidden, w)
			continue
		}
		visible = append(visible, w)
	}
	return visible, hidden
}

// VisibleWidgets returns the widgets with a non-zero width.
func VisibleWidgets(widgets []WidgetPosition) []WidgetPosition {
	visible, _ := partitionVisible(widgets)
	return visible
}

// RowWidths sums visible widths per row.
func RowWidths(widgets []WidgetPosition) map[int]int {
	rows := make(map[int]int)
	for _, w := range widgets {
		if w.Hidden() {
			continue
		}
		rows[w.Row] += w.Width
	}
	return rows
}

func clampInt(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
