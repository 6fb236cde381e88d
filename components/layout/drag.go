package layout

import (
	"math"
	"sync"
)

// DefaultGridGap is the pixel gap between widgets used for gap zones.
const DefaultGridGap = 20.0

// Point is a pointer position in client coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a rendered bounding box in client coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.Left + r.Width/2, Y: r.Top + r.Height/2}
}

// ContainerGeometry describes the scrolling grid container.
type ContainerGeometry struct {
	Rect      Rect
	ScrollTop float64
}

// GeometryProvider exposes rendered geometry to the drag controller.
// RenderedWidgets returns visible widget ids in render order.
type GeometryProvider interface {
	Container() ContainerGeometry
	RenderedWidgets() []string
	RectOf(widgetID string) (Rect, bool)
}

// GapZone is a thin drop target between two rendered widgets, in
// container-relative coordinates.
type GapZone struct {
	Index  int     `json:"index"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DragInfo is recorded at drag start and sizes the floating ghost.
type DragInfo struct {
	WidgetID string  `json:"widgetId"`
	OffsetX  float64 `json:"offsetX"`
	OffsetY  float64 `json:"offsetY"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// DragState is a read-only view of the controller.
type DragState struct {
	Active      bool      `json:"active"`
	Info        DragInfo  `json:"info"`
	Ghost       Point     `json:"ghost"`
	InsertIndex *int      `json:"insertIndex,omitempty"`
	GapZones    []GapZone `json:"gapZones,omitempty"`
}

// PointerDown is the pointer-down event on a widget drag surface.
// Interactive is set when the event target is a button, select, input or
// other control that must keep its own pointer behaviour.
type PointerDown struct {
	WidgetID    string
	X           float64
	Y           float64
	Interactive bool
}

// FindInsertIndex picks the insertion slot nearest to pointer. The dragged
// widget is skipped and does not count toward the index, so the result indexes
// the visible list with the dragged widget removed.
func FindInsertIndex(pointer Point, geometry GeometryProvider, draggedID string) int {
	container := geometry.Container()
	relX := pointer.X - container.Rect.Left
	relY := pointer.Y - container.Rect.Top + container.ScrollTop

	closest := 0
	minDistance := math.Inf(1)
	adjusted := 0
	for _, id := range geometry.RenderedWidgets() {
		if id == draggedID {
			continue
		}
		rect, ok := geometry.RectOf(id)
		if !ok {
			continue
		}
		center := rect.Center()
		cx := center.X - container.Rect.Left
		cy := center.Y - container.Rect.Top + container.ScrollTop
		distance := math.Hypot(relX-cx, relY-cy)
		if distance < minDistance {
			minDistance = distance
			if relX < cx {
				closest = adjusted
			} else {
				closest = adjusted + 1
			}
		}
		adjusted++
	}
	return closest
}

// ComputeGapZones places one zone before every rendered widget and one after
// the last.
func ComputeGapZones(geometry GeometryProvider, gap float64) []GapZone {
	if gap <= 0 {
		gap = DefaultGridGap
	}
	container := geometry.Container()
	zones := make([]GapZone, 0)
	var last *Rect
	idx := 0
	for _, id := range geometry.RenderedWidgets() {
		rect, ok := geometry.RectOf(id)
		if !ok {
			continue
		}
		left := rect.Left - container.Rect.Left
		top := rect.Top - container.Rect.Top + container.ScrollTop
		zones = append(zones, GapZone{
			Index:  idx,
			Left:   left - gap/2,
			Top:    top,
			Width:  gap,
			Height: rect.Height,
		})
		r := rect
		last = &r
		idx++
	}
	if last != nil {
		left := last.Left - container.Rect.Left
		top := last.Top - container.Rect.Top + container.ScrollTop
		zones = append(zones, GapZone{
			Index:  idx,
			Left:   left + last.Width + gap/2,
			Top:    top,
			Width:  gap,
			Height: last.Height,
		})
	}
	return zones
}

// DragOptions configures a DragController.
type DragOptions struct {
	Geometry  GeometryProvider
	Scheduler FrameScheduler
	// OnReorder receives the dragged id and the index computed by FindInsertIndex.
	OnReorder func(draggedID string, targetIndex int)
	// Enabled gates drag start; nil means always enabled.
	Enabled func() bool
	GridGap float64
}

// DragController runs the Idle -> Dragging -> Idle pointer state machine.
// Pointer moves are coalesced so geometry is read at most once per frame.
type DragController struct {
	opts DragOptions

	mu          sync.Mutex
	active      bool
	info        DragInfo
	ghost       Point
	insertIndex *int
	gapZones    []GapZone
	lastPointer Point
	pending     bool
	cancelFrame func()
	generation  int
}

// NewDragController applies defaults to opts.
func NewDragController(opts DragOptions) *DragController {
	if opts.Scheduler == nil {
		opts.Scheduler = NewTimerScheduler(60)
	}
	if opts.OnReorder == nil {
		opts.OnReorder = func(string, int) {}
	}
	if opts.Enabled == nil {
		opts.Enabled = func() bool { return true }
	}
	if opts.GridGap <= 0 {
		opts.GridGap = DefaultGridGap
	}
	return &DragController{opts: opts}
}

// PointerDown starts a drag. It reports false when the controller is disabled,
// already dragging, the target is an interactive control, or the widget has no
// rendered geometry.
func (c *DragController) PointerDown(evt PointerDown) bool {
	if evt.Interactive || !c.opts.Enabled() || c.opts.Geometry == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return false
	}
	rect, ok := c.opts.Geometry.RectOf(evt.WidgetID)
	if !ok {
		return false
	}
	c.active = true
	c.info = DragInfo{
		WidgetID: evt.WidgetID,
		OffsetX:  evt.X - rect.Left,
		OffsetY:  evt.Y - rect.Top,
		Width:    rect.Width,
		Height:   rect.Height,
	}
	c.ghost = Point{X: rect.Left, Y: rect.Top}
	c.insertIndex = nil
	c.gapZones = nil
	c.lastPointer = Point{X: evt.X, Y: evt.Y}
	c.generation++
	return true
}

// PointerMove records the latest pointer position. At most one frame callback
// is pending; it processes only the most recent position.
func (c *DragController) PointerMove(x, y float64) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.lastPointer = Point{X: x, Y: y}
	if c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = true
	generation := c.generation
	c.mu.Unlock()

	cancel := c.opts.Scheduler.RequestFrame(func() {
		c.processFrame(generation)
	})

	c.mu.Lock()
	if c.pending && c.generation == generation {
		c.cancelFrame = cancel
	}
	c.mu.Unlock()
}

func (c *DragController) processFrame(generation int) {
	c.mu.Lock()
	if !c.active || c.generation != generation {
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.cancelFrame = nil
	pointer := c.lastPointer
	draggedID := c.info.WidgetID
	c.ghost = Point{X: pointer.X - c.info.OffsetX, Y: pointer.Y - c.info.OffsetY}
	c.mu.Unlock()

	idx := FindInsertIndex(pointer, c.opts.Geometry, draggedID)
	zones := ComputeGapZones(c.opts.Geometry, c.opts.GridGap)

	c.mu.Lock()
	if c.active && c.generation == generation {
		c.insertIndex = &idx
		c.gapZones = zones
	}
	c.mu.Unlock()
}

// PointerUp ends the drag and hands the last computed insert index to
// OnReorder. It reports whether a reorder was requested.
func (c *DragController) PointerUp() bool {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return false
	}
	draggedID := c.info.WidgetID
	idx := c.insertIndex
	c.reset()
	c.mu.Unlock()

	if idx == nil {
		return false
	}
	c.opts.OnReorder(draggedID, *idx)
	return true
}

// Cancel abandons the drag without reordering.
func (c *DragController) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *DragController) reset() {
	if c.cancelFrame != nil {
		c.cancelFrame()
	}
	c.cancelFrame = nil
	c.pending = false
	c.active = false
	c.info = DragInfo{}
	c.insertIndex = nil
	c.gapZones = nil
	c.generation++
}

// Dragging reports whether a drag is in progress.
func (c *DragController) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// State returns a copy of the current drag state.
func (c *DragController) State() DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := DragState{
		Active: c.active,
		Info:   c.info,
		Ghost:  c.ghost,
	}
	if c.insertIndex != nil {
		idx := *c.insertIndex
		state.InsertIndex = &idx
	}
	if len(c.gapZones) > 0 {
		state.GapZones = append([]GapZone(nil), c.gapZones...)
	}
	return state
}
