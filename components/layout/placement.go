package layout

// rowCursor walks a 12-column grid left to right, top to bottom.
type rowCursor struct {
	row int
	col int
}

// place returns the slot for a widget of the given width and advances the
// cursor. A widget that does not fit in the current row starts the next one.
func (c *rowCursor) place(width int) (row, col int) {
	if c.col+width > GridColumns {
		c.row++
		c.col = 0
	}
	row, col = c.row, c.col
	c.col += width
	return row, col
}

// AutoFlow packs definitions greedily in the order given, using each
// definition's default size.
func AutoFlow(definitions []WidgetDefinition) []WidgetPosition {
	cursor := &rowCursor{}
	out := make([]WidgetPosition, 0, len(definitions))
	for _, def := range definitions {
		row, col := cursor.place(def.DefaultWidth)
		out = append(out, WidgetPosition{
			WidgetID:   def.WidgetID,
			WidgetType: def.WidgetType,
			Row:        row,
			Col:        col,
			Width:      def.DefaultWidth,
			Height:     def.DefaultHeight,
		})
	}
	return out
}

// Repack reassigns row and col of every visible widget in list order, keeping
// widths and heights. Hidden widgets are returned untouched in place.
func Repack(widgets []WidgetPosition) []WidgetPosition {
	out := cloneWidgets(widgets)
	cursor := &rowCursor{}
	for i := range out {
		if out[i].Hidden() {
			continue
		}
		out[i].Row, out[i].Col = cursor.place(out[i].Width)
	}
	return out
}
