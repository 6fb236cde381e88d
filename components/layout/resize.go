package layout

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

const (
	// FallbackContainerWidth is used when the host cannot measure the grid container.
	FallbackContainerWidth = 1200.0
	// FallbackStartHeight is used when the widget has no recorded height.
	FallbackStartHeight = 300
)

// ResizeDirection names the handle a resize gesture started from.
type ResizeDirection string

const (
	ResizeN  ResizeDirection = "n"
	ResizeNE ResizeDirection = "ne"
	ResizeE  ResizeDirection = "e"
	ResizeSE ResizeDirection = "se"
	ResizeS  ResizeDirection = "s"
	ResizeSW ResizeDirection = "sw"
	ResizeW  ResizeDirection = "w"
	ResizeNW ResizeDirection = "nw"
)

// ParseResizeDirection validates a handle name.
func ParseResizeDirection(value string) (ResizeDirection, error) {
	dir := ResizeDirection(strings.ToLower(strings.TrimSpace(value)))
	switch dir {
	case ResizeN, ResizeNE, ResizeE, ResizeSE, ResizeS, ResizeSW, ResizeW, ResizeNW:
		return dir, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, value)
}

func (d ResizeDirection) horizontal() int {
	switch {
	case strings.Contains(string(d), "e"):
		return 1
	case strings.Contains(string(d), "w"):
		return -1
	}
	return 0
}

func (d ResizeDirection) vertical() int {
	switch {
	case strings.Contains(string(d), "s"):
		return 1
	case strings.Contains(string(d), "n"):
		return -1
	}
	return 0
}

// ResizeStart captures the state at pointer-down on a resize handle.
type ResizeStart struct {
	Direction      ResizeDirection
	PointerX       float64
	PointerY       float64
	StartWidth     int
	StartHeight    int
	ContainerWidth float64
}

// ResizePreview is the size shown while the pointer is held.
type ResizePreview struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ComputeResize applies a pointer delta to a starting size. Only the axes the
// direction names change; the result is clamped to [floor.Width, 12] columns
// and at least floor.Height pixels.
func ComputeResize(dir ResizeDirection, startWidth, startHeight int, columnWidth, dx, dy float64, floor MinSize) ResizePreview {
	width := startWidth
	height := startHeight
	if sign := dir.horizontal(); sign != 0 && columnWidth > 0 {
		width = roundHalfUp((float64(startWidth)*columnWidth + float64(sign)*dx) / columnWidth)
	}
	if sign := dir.vertical(); sign != 0 {
		height = roundHalfUp(float64(startHeight) + float64(sign)*dy)
	}
	return ResizePreview{
		Width:  clampInt(width, floor.Width, GridColumns),
		Height: max(height, floor.Height),
	}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// ResizeController tracks one resize gesture on one widget. The preview is
// kept apart from the store until End commits it.
type ResizeController struct {
	mu          sync.Mutex
	widgetID    string
	minSize     MinSize
	onCommit    func(widgetID string, width, height int)
	active      bool
	start       ResizeStart
	columnWidth float64
	preview     *ResizePreview
}

// NewResizeController builds a controller for widgetID. onCommit receives the
// final size on pointer-up.
func NewResizeController(widgetID string, widgetType WidgetType, onCommit func(widgetID string, width, height int)) *ResizeController {
	if onCommit == nil {
		onCommit = func(string, int, int) {}
	}
	return &ResizeController{
		widgetID: widgetID,
		minSize:  widgetType.MinSize(),
		onCommit: onCommit,
	}
}

// Begin starts a gesture. Missing container width and start height fall back
// to 1200px and 300px.
func (c *ResizeController) Begin(start ResizeStart) error {
	if _, err := ParseResizeDirection(string(start.Direction)); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return ErrResizeInProgress
	}
	if start.ContainerWidth <= 0 {
		start.ContainerWidth = FallbackContainerWidth
	}
	if start.StartHeight <= 0 {
		start.StartHeight = FallbackStartHeight
	}
	c.active = true
	c.start = start
	c.columnWidth = start.ContainerWidth / GridColumns
	c.preview = nil
	return nil
}

// Move updates the preview for the current pointer position.
func (c *ResizeController) Move(x, y float64) (ResizePreview, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return ResizePreview{}, false
	}
	preview := ComputeResize(
		c.start.Direction,
		c.start.StartWidth,
		c.start.StartHeight,
		c.columnWidth,
		x-c.start.PointerX,
		y-c.start.PointerY,
		c.minSize,
	)
	c.preview = &preview
	return preview, true
}

// Preview returns the in-progress size, if the pointer has moved.
func (c *ResizeController) Preview() (ResizePreview, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.preview == nil {
		return ResizePreview{}, false
	}
	return *c.preview, true
}

// Active reports whether a gesture is in progress.
func (c *ResizeController) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// End finishes the gesture and commits the last preview. A gesture that never
// moved commits nothing.
func (c *ResizeController) End() (ResizePreview, bool) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return ResizePreview{}, false
	}
	preview := c.preview
	c.active = false
	c.preview = nil
	c.mu.Unlock()

	if preview == nil {
		return ResizePreview{}, false
	}
	c.onCommit(c.widgetID, preview.Width, preview.Height)
	return *preview, true
}

// Cancel abandons the gesture without committing.
func (c *ResizeController) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
	c.preview = nil
}
