package layout

import (
	"fmt"
	"strings"

	"github.com/ettle/strcase"
)

// WidgetType is the closed set of widget kinds a report page can render.
type WidgetType string

const (
	WidgetKPICard             WidgetType = "kpi-card"
	WidgetKPISection          WidgetType = "kpi-section"
	WidgetFunnelChart         WidgetType = "funnel-chart"
	WidgetCampaignSection     WidgetType = "campaign-section"
	WidgetGraphCard           WidgetType = "graph-card"
	WidgetPageSummary         WidgetType = "page-summary"
	WidgetTimeSeriesChart     WidgetType = "time-series-chart"
	WidgetSuccessStories      WidgetType = "success-stories"
	WidgetStrategicPriorities WidgetType = "strategic-priorities"
	WidgetOutcomesSection     WidgetType = "outcomes-section"
	WidgetSectionGeneric      WidgetType = "section-generic"
)

// WidgetTypes lists every known widget type in declaration order.
func WidgetTypes() []WidgetType {
	return []WidgetType{
		WidgetKPICard,
		WidgetKPISection,
		WidgetFunnelChart,
		WidgetCampaignSection,
		WidgetGraphCard,
		WidgetPageSummary,
		WidgetTimeSeriesChart,
		WidgetSuccessStories,
		WidgetStrategicPriorities,
		WidgetOutcomesSection,
		WidgetSectionGeneric,
	}
}

// MinSize holds the resize floor for a widget type.
type MinSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MinSize returns the minimum width (columns) and height (pixels). Types that
// are not part of the known set fall back to the generic section floor.
func (t WidgetType) MinSize() MinSize {
	switch t {
	case WidgetKPICard:
		return MinSize{Width: 2, Height: 80}
	case WidgetKPISection:
		return MinSize{Width: 4, Height: 100}
	case WidgetFunnelChart:
		return MinSize{Width: 4, Height: 200}
	case WidgetCampaignSection:
		return MinSize{Width: 4, Height: 150}
	case WidgetGraphCard:
		return MinSize{Width: 3, Height: 150}
	case WidgetPageSummary:
		return MinSize{Width: 4, Height: 120}
	case WidgetTimeSeriesChart:
		return MinSize{Width: 4, Height: 180}
	case WidgetSuccessStories, WidgetStrategicPriorities, WidgetOutcomesSection:
		return MinSize{Width: 4, Height: 150}
	case WidgetSectionGeneric:
		return MinSize{Width: 3, Height: 100}
	default:
		return MinSize{Width: 3, Height: 100}
	}
}

// Valid reports whether t is one of the known widget types.
func (t WidgetType) Valid() bool {
	for _, known := range WidgetTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// ParseWidgetType accepts kebab, snake, camel or pascal spellings
// ("timeSeriesChart", "time_series_chart") and returns the canonical type.
func ParseWidgetType(value string) (WidgetType, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownWidgetType)
	}
	candidate := WidgetType(strcase.ToKebab(trimmed))
	if candidate.Valid() {
		return candidate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWidgetType, value)
}
