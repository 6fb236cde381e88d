package layout

import (
	"context"
	"strings"
)

const (
	// GridColumns is the number of equal-width columns spanning the layout container.
	GridColumns = 12
	// DefaultUndoDepth bounds the snapshot stack kept per editing session.
	DefaultUndoDepth = 20
	// CurrentVersion is written on every committed layout.
	CurrentVersion = 1
)

// GridDensity controls spacing between widgets when the host renders the grid.
type GridDensity string

const (
	DensityCompact  GridDensity = "compact"
	DensityNormal   GridDensity = "normal"
	DensitySpacious GridDensity = "spacious"
)

// ParseGridDensity normalizes stored density values, falling back to normal.
func ParseGridDensity(value string) GridDensity {
	switch GridDensity(strings.ToLower(strings.TrimSpace(value))) {
	case DensityCompact:
		return DensityCompact
	case DensitySpacious:
		return DensitySpacious
	default:
		return DensityNormal
	}
}

// PageKey identifies an editing session and its persisted layout.
type PageKey struct {
	ClientID string `json:"client_id"`
	PageID   string `json:"page_id"`
}

// String renders the key as client::page.
func (k PageKey) String() string {
	return k.ClientID + "::" + k.PageID
}

// Validate ensures both halves of the key are present.
func (k PageKey) Validate() error {
	if strings.TrimSpace(k.ClientID) == "" || strings.TrimSpace(k.PageID) == "" {
		return ErrInvalidKey
	}
	return nil
}

// WidgetPosition places a widget on the grid. Width zero marks the widget hidden.
type WidgetPosition struct {
	WidgetID   string     `json:"widgetId"`
	WidgetType WidgetType `json:"widgetType"`
	Row        int        `json:"row"`
	Col        int        `json:"col"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
}

// Hidden reports whether the widget is excluded from packing.
func (p WidgetPosition) Hidden() bool {
	return p.Width == 0
}

// WidgetDefinition is supplied by the host page and decides which widgets exist.
type WidgetDefinition struct {
	WidgetID      string     `json:"widgetId" yaml:"id"`
	WidgetType    WidgetType `json:"widgetType" yaml:"type"`
	DefaultWidth  int        `json:"defaultWidth" yaml:"width"`
	DefaultHeight int        `json:"defaultHeight" yaml:"height"`
}

// PageLayoutConfig is the persisted layout for a (client, page) pair.
type PageLayoutConfig struct {
	Version     int              `json:"version"`
	Widgets     []WidgetPosition `json:"widgets"`
	GridDensity GridDensity      `json:"gridDensity,omitempty"`
}

// ChangeType tags a pending change record.
type ChangeType string

const (
	ChangeMove    ChangeType = "move"
	ChangeResize  ChangeType = "resize"
	ChangeHide    ChangeType = "hide"
	ChangeShow    ChangeType = "show"
	ChangeReorder ChangeType = "reorder"
)

// PositionPatch carries the subset of WidgetPosition fields touched by a change.
type PositionPatch struct {
	Row    *int `json:"row,omitempty"`
	Col    *int `json:"col,omitempty"`
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
}

func placementPatch(row, col int) PositionPatch {
	return PositionPatch{Row: &row, Col: &col}
}

func sizePatch(width, height int) PositionPatch {
	return PositionPatch{Width: &width, Height: &height}
}

func widthPatch(width int) PositionPatch {
	return PositionPatch{Width: &width}
}

// LayoutChange describes the primary widget touched by one mutation. Reorders
// list every other widget whose row or col moved in Affected.
type LayoutChange struct {
	ID            string        `json:"id"`
	Type          ChangeType    `json:"type"`
	WidgetID      string        `json:"widgetId"`
	PreviousValue PositionPatch `json:"previousValue"`
	NewValue      PositionPatch `json:"newValue"`
	Affected      []string      `json:"affected,omitempty"`
}

// LayoutSnapshot is a deep copy of the full widget list.
type LayoutSnapshot struct {
	Widgets []WidgetPosition
}

// SaveFunc persists a committed layout.
type SaveFunc func(ctx context.Context, layout PageLayoutConfig) error

// Repository is the persistence adapter contract. Adapters report failures as
// errors; the Service decides which ones reach the caller.
type Repository interface {
	FetchLayout(ctx context.Context, key PageKey) (*PageLayoutConfig, error)
	SaveLayout(ctx context.Context, key PageKey, layout PageLayoutConfig) error
	ResetLayout(ctx context.Context, key PageKey) error
}

// ChangeHook is notified after a layout is committed or reset.
type ChangeHook interface {
	LayoutUpdated(ctx context.Context, event LayoutEvent) error
}

// LayoutEvent describes a persisted layout change.
type LayoutEvent struct {
	Key    PageKey          `json:"key"`
	Layout PageLayoutConfig `json:"layout"`
	Reason string           `json:"reason"`
}

// SessionSnapshot is a read-only view of a Layout Store.
type SessionSnapshot struct {
	Key               PageKey          `json:"key"`
	Widgets           []WidgetPosition `json:"widgets"`
	PendingChanges    []LayoutChange   `json:"pendingChanges"`
	HasPendingChanges bool             `json:"hasPendingChanges"`
	CanUndo           bool             `json:"canUndo"`
	CanRedo           bool             `json:"canRedo"`
	GridDensity       GridDensity      `json:"gridDensity"`
}
