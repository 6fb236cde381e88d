package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const legacyDefaultWidth = 6
const legacyDefaultHeight = 200

// LegacyPosition is the per-widget entry of the pre-versioned record shape.
type LegacyPosition struct {
	Order      *int `json:"order,omitempty"`
	GridRow    *int `json:"gridRow,omitempty"`
	GridColumn *int `json:"gridColumn,omitempty"`
	GridWidth  *int `json:"gridWidth,omitempty"`
	GridHeight *int `json:"gridHeight,omitempty"`
}

// StoredLayout is the JSON document written to the layout_config column. It
// carries both the versioned widget list and the legacy fields so older
// readers keep working.
type StoredLayout struct {
	Version         int                       `json:"version,omitempty"`
	Widgets         []WidgetPosition          `json:"widgets,omitempty"`
	WidgetOrder     []string                  `json:"widgetOrder,omitempty"`
	HiddenWidgets   []string                  `json:"hiddenWidgets"`
	WidgetPositions map[string]LegacyPosition `json:"widgetPositions,omitempty"`
}

// EncodeStoredLayout converts a committed layout into its dual-written record.
func EncodeStoredLayout(cfg PageLayoutConfig) StoredLayout {
	record := StoredLayout{
		Version:         cfg.Version,
		Widgets:         cloneWidgets(cfg.Widgets),
		WidgetOrder:     make([]string, 0, len(cfg.Widgets)),
		HiddenWidgets:   []string{},
		WidgetPositions: make(map[string]LegacyPosition, len(cfg.Widgets)),
	}
	if record.Widgets == nil {
		record.Widgets = []WidgetPosition{}
	}
	for idx, w := range cfg.Widgets {
		record.WidgetOrder = append(record.WidgetOrder, w.WidgetID)
		if w.Hidden() {
			record.HiddenWidgets = append(record.HiddenWidgets, w.WidgetID)
		}
		order, row, col, width, height := idx, w.Row, w.Col, w.Width, w.Height
		record.WidgetPositions[w.WidgetID] = LegacyPosition{
			Order:      &order,
			GridRow:    &row,
			GridColumn: &col,
			GridWidth:  &width,
			GridHeight: &height,
		}
	}
	return record
}

// Normalize reads either record shape. Versioned records are returned as-is,
// legacy widgetPositions records are converted with version 0. It returns nil
// when the record holds neither shape.
func (r StoredLayout) Normalize(density GridDensity) *PageLayoutConfig {
	if density == "" {
		density = DensityNormal
	}
	if r.Version != 0 && r.Widgets != nil {
		return &PageLayoutConfig{
			Version:     r.Version,
			Widgets:     cloneWidgets(r.Widgets),
			GridDensity: density,
		}
	}
	if r.WidgetPositions == nil {
		return nil
	}
	return &PageLayoutConfig{
		Version:     0,
		Widgets:     r.legacyWidgets(),
		GridDensity: density,
	}
}

func (r StoredLayout) legacyWidgets() []WidgetPosition {
	orderHint := make(map[string]int, len(r.WidgetOrder))
	for idx, id := range r.WidgetOrder {
		orderHint[id] = idx
	}
	ids := make([]string, 0, len(r.WidgetPositions))
	for id := range r.WidgetPositions {
		ids = append(ids, id)
	}
	rank := func(id string) (int, bool) {
		if pos := r.WidgetPositions[id]; pos.Order != nil {
			return *pos.Order, true
		}
		idx, ok := orderHint[id]
		return idx, ok
	}
	sort.SliceStable(ids, func(i, j int) bool {
		ri, iok := rank(ids[i])
		rj, jok := rank(ids[j])
		if iok != jok {
			return iok
		}
		if iok && ri != rj {
			return ri < rj
		}
		pi, pj := r.WidgetPositions[ids[i]], r.WidgetPositions[ids[j]]
		if a, b := intOr(pi.GridRow, 0), intOr(pj.GridRow, 0); a != b {
			return a < b
		}
		if a, b := intOr(pi.GridColumn, 0), intOr(pj.GridColumn, 0); a != b {
			return a < b
		}
		return ids[i] < ids[j]
	})

	out := make([]WidgetPosition, 0, len(ids))
	for _, id := range ids {
		pos := r.WidgetPositions[id]
		out = append(out, WidgetPosition{
			WidgetID:   id,
			WidgetType: WidgetSectionGeneric,
			Row:        intOr(pos.GridRow, 0),
			Col:        intOr(pos.GridColumn, 0),
			Width:      intOr(pos.GridWidth, legacyDefaultWidth),
			Height:     intOr(pos.GridHeight, legacyDefaultHeight),
		})
	}
	return out
}

func intOr(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

// MarshalStoredLayout encodes cfg as the layout_config JSON document.
func MarshalStoredLayout(cfg PageLayoutConfig) ([]byte, error) {
	data, err := json.Marshal(EncodeStoredLayout(cfg))
	if err != nil {
		return nil, fmt.Errorf("layout: marshal stored layout: %w", err)
	}
	return data, nil
}

// DecodeStoredLayout validates a layout_config document and normalizes it.
// A nil config with a nil error means the record held no usable layout.
func DecodeStoredLayout(data []byte, density GridDensity) (*PageLayoutConfig, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("layout: decode stored layout: %w", err)
	}
	if payload == nil {
		return nil, nil
	}
	schema, err := storedLayoutSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(payload); err != nil {
		return nil, fmt.Errorf("layout: stored layout failed validation: %w", err)
	}
	var record StoredLayout
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("layout: decode stored layout: %w", err)
	}
	return record.Normalize(density), nil
}

var storedLayoutSchemaDoc = map[string]any{
	"type":    "object",
	"properties": map[string]any{
		"version": map[string]any{"type": "integer", "minimum": 0},
		"widgets": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"widgetId", "row", "col", "width", "height"},
				"properties": map[string]any{
					"widgetId":   map[string]any{"type": "string", "minLength": 1},
					"widgetType": map[string]any{"type": "string"},
					"row":        map[string]any{"type": "integer", "minimum": 0},
					"col":        map[string]any{"type": "integer", "minimum": 0, "maximum": GridColumns - 1},
					"width":      map[string]any{"type": "integer", "minimum": 0, "maximum": GridColumns},
					"height":     map[string]any{"type": "integer", "minimum": 0},
				},
			},
		},
		"widgetOrder":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"hiddenWidgets": map[string]any{"type": []string{"array", "null"}, "items": map[string]any{"type": "string"}},
		"widgetPositions": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"order":      map[string]any{"type": "integer"},
					"gridRow":    map[string]any{"type": "integer", "minimum": 0},
					"gridColumn": map[string]any{"type": "integer", "minimum": 0},
					"gridWidth":  map[string]any{"type": "integer", "minimum": 0},
					"gridHeight": map[string]any{"type": "integer", "minimum": 0},
				},
			},
		},
	},
}

var (
	storedSchemaOnce sync.Once
	storedSchema     *jsonschema.Schema
	storedSchemaErr  error
)

func storedLayoutSchema() (*jsonschema.Schema, error) {
	storedSchemaOnce.Do(func() {
		data, err := json.Marshal(storedLayoutSchemaDoc)
		if err != nil {
			storedSchemaErr = fmt.Errorf("layout: marshal stored layout schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		const name = "stored-layout.json"
		if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
			storedSchemaErr = fmt.Errorf("layout: load stored layout schema: %w", err)
			return
		}
		storedSchema, storedSchemaErr = compiler.Compile(name)
		if storedSchemaErr != nil {
			storedSchemaErr = fmt.Errorf("layout: compile stored layout schema: %w", storedSchemaErr)
		}
	})
	return storedSchema, storedSchemaErr
}
