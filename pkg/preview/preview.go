// Package preview renders a layout as a terminal grid.
package preview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-gridlayout/components/layout"
)

const (
	DefaultColumnWidth = 8
	minColumnWidth     = 4
)

// Options tunes Render.
type Options struct {
	// ColumnWidth is the number of terminal cells per grid column.
	ColumnWidth int
	Title       string
	ShowHidden  bool
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	widgetStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8"))
	idStyle     = lipgloss.NewStyle().Bold(true)
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	hiddenStyle = lipgloss.NewStyle().Faint(true)
)

// Render draws visible widgets row by row on a 12 column ruler. Each line of
// the output is exactly GridColumns*ColumnWidth cells wide.
func Render(widgets []layout.WidgetPosition, opts Options) string {
	cw := opts.ColumnWidth
	if cw <= 0 {
		cw = DefaultColumnWidth
	}
	if cw < minColumnWidth {
		cw = minColumnWidth
	}
	total := layout.GridColumns * cw

	visible := layout.VisibleWidgets(widgets)
	rows := groupRows(visible)

	blocks := make([]string, 0, len(rows)+3)
	if opts.Title != "" {
		blocks = append(blocks, lipgloss.PlaceHorizontal(total, lipgloss.Left, titleStyle.Render(opts.Title)))
	}
	blocks = append(blocks, ruler(cw))
	for _, row := range rows {
		blocks = append(blocks, renderRow(row, cw))
	}
	if len(rows) == 0 {
		blocks = append(blocks, lipgloss.PlaceHorizontal(total, lipgloss.Center, metaStyle.Render("(empty layout)")))
	}
	if opts.ShowHidden {
		var hidden []string
		for _, w := range widgets {
			if w.Hidden() {
				hidden = append(hidden, w.WidgetID)
			}
		}
		if len(hidden) > 0 {
			line := truncate("hidden: "+strings.Join(hidden, ", "), total)
			blocks = append(blocks, lipgloss.PlaceHorizontal(total, lipgloss.Left, hiddenStyle.Render(line)))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func groupRows(widgets []layout.WidgetPosition) [][]layout.WidgetPosition {
	byRow := map[int][]layout.WidgetPosition{}
	var order []int
	for _, w := range widgets {
		if _, ok := byRow[w.Row]; !ok {
			order = append(order, w.Row)
		}
		byRow[w.Row] = append(byRow[w.Row], w)
	}
	sort.Ints(order)
	rows := make([][]layout.WidgetPosition, 0, len(order))
	for _, r := range order {
		row := byRow[r]
		sort.SliceStable(row, func(i, j int) bool { return row[i].Col < row[j].Col })
		rows = append(rows, row)
	}
	return rows
}

// renderRow lays widgets left to right. Overlapping or overflowing widgets
// are drawn after the previous one and clipped at the right edge.
func renderRow(row []layout.WidgetPosition, cw int) string {
	parts := make([]string, 0, len(row)*2+1)
	cursor := 0
	for _, w := range row {
		col := w.Col
		if col < cursor {
			col = cursor
		}
		if col >= layout.GridColumns {
			break
		}
		if gap := col - cursor; gap > 0 {
			parts = append(parts, blank(gap*cw))
		}
		span := w.Width
		if span < 1 {
			span = 1
		}
		if col+span > layout.GridColumns {
			span = layout.GridColumns - col
		}
		parts = append(parts, renderWidget(w, span*cw))
		cursor = col + span
	}
	if cursor < layout.GridColumns {
		parts = append(parts, blank((layout.GridColumns-cursor)*cw))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderWidget(w layout.WidgetPosition, width int) string {
	inner := width - 2
	lines := []string{
		idStyle.Render(truncate(w.WidgetID, inner)),
		metaStyle.Render(truncate(string(w.WidgetType), inner)),
		metaStyle.Render(truncate(fmt.Sprintf("%dx%d", w.Width, w.Height), inner)),
	}
	return widgetStyle.Width(inner).Render(strings.Join(lines, "\n"))
}

func ruler(cw int) string {
	var b strings.Builder
	for i := 0; i < layout.GridColumns; i++ {
		label := fmt.Sprintf("%d", i)
		b.WriteString(label)
		b.WriteString(strings.Repeat(" ", cw-len(label)))
	}
	return metaStyle.Render(b.String())
}

func blank(width int) string {
	return strings.Repeat(" ", width)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if width == 1 {
		return string(runes[:1])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
