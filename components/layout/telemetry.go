package layout

import (
	"context"
	"log/slog"
)

// Telemetry records layout events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// LogTelemetry writes events to a structured logger at debug level.
type LogTelemetry struct {
	Logger *slog.Logger
}

// Record implements Telemetry.
func (t LogTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := make([]slog.Attr, 0, len(payload))
	for k, v := range payload {
		attrs = append(attrs, slog.Any(k, v))
	}
	logger.LogAttrs(ctx, slog.LevelDebug, event, attrs...)
}

const (
	EventWidgetMove    = "layout.widget.move"
	EventWidgetResize  = "layout.widget.resize"
	EventWidgetReorder = "layout.widget.reorder"
	EventWidgetHide    = "layout.widget.hide"
	EventWidgetShow    = "layout.widget.show"
	EventUndo          = "layout.undo"
	EventRedo          = "layout.redo"
	EventCommit        = "layout.commit"
	EventCommitFailed  = "layout.commit.failed"
	EventDiscard       = "layout.discard"
	EventSessionOpen   = "layout.session.open"
	EventReset         = "layout.reset"
)
