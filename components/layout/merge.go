package layout

// MergeLayout reconciles a saved layout with the page's current definitions.
//
// Definitions decide which widgets exist and in what order they are emitted.
// Saved positions are reused verbatim; saved entries with no definition are
// dropped. Definitions with no saved entry are appended below the lowest saved
// row, one per row, at col 0 with their default size. A nil or empty saved
// layout yields AutoFlow(definitions).
func MergeLayout(saved *PageLayoutConfig, definitions []WidgetDefinition) []WidgetPosition {
	if saved == nil || len(saved.Widgets) == 0 {
		return AutoFlow(definitions)
	}

	byID := make(map[string]WidgetPosition, len(saved.Widgets))
	for _, w := range saved.Widgets {
		byID[w.WidgetID] = w
	}

	maxRow := -1
	for _, def := range definitions {
		if w, ok := byID[def.WidgetID]; ok && w.Row > maxRow {
			maxRow = w.Row
		}
	}

	out := make([]WidgetPosition, 0, len(definitions))
	for _, def := range definitions {
		if w, ok := byID[def.WidgetID]; ok {
			w.WidgetType = def.WidgetType
			out = append(out, w)
			continue
		}
		maxRow++
		out = append(out, WidgetPosition{
			WidgetID:   def.WidgetID,
			WidgetType: def.WidgetType,
			Row:        maxRow,
			Col:        0,
			Width:      def.DefaultWidth,
			Height:     def.DefaultHeight,
		})
	}
	return out
}

// Flatten builds the persisted form of widgets: hidden entries are dropped and
// the version is stamped.
func Flatten(widgets []WidgetPosition, density GridDensity) PageLayoutConfig {
	if density == "" {
		density = DensityNormal
	}
	return PageLayoutConfig{
		Version:     CurrentVersion,
		Widgets:     VisibleWidgets(widgets),
		GridDensity: density,
	}
}

// GenerateDefaultLayout returns the auto-flow layout for definitions wrapped in
// a versioned config.
func GenerateDefaultLayout(definitions []WidgetDefinition) PageLayoutConfig {
	return PageLayoutConfig{
		Version:     CurrentVersion,
		Widgets:     AutoFlow(definitions),
		GridDensity: DensityNormal,
	}
}
