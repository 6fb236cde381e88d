package httpapi

import (
	"context"
	"errors"

	"github.com/goliatone/go-gridlayout/components/layout"
	"github.com/goliatone/go-gridlayout/components/layout/commands"
	"github.com/goliatone/go-gridlayout/components/layout/queries"
)

// Executor is the transport-agnostic surface router adapters call into.
type Executor interface {
	OpenSession(ctx context.Context, in commands.OpenSessionInput) error
	MoveWidget(ctx context.Context, in commands.MoveWidgetInput) error
	ResizeWidget(ctx context.Context, in commands.ResizeWidgetInput) error
	ReorderWidget(ctx context.Context, in commands.ReorderWidgetInput) error
	SetVisibility(ctx context.Context, in commands.SetVisibilityInput) error
	StepHistory(ctx context.Context, in commands.HistoryInput) error
	Commit(ctx context.Context, in commands.SessionInput) error
	Discard(ctx context.Context, in commands.SessionInput) error
	Reset(ctx context.Context, in commands.SessionInput) error
	Snapshot(ctx context.Context, key layout.PageKey) (layout.SessionSnapshot, error)
	SavedLayout(ctx context.Context, key layout.PageKey) ([]layout.WidgetPosition, error)
}

type layoutService interface {
	OpenSession(ctx context.Context, key layout.PageKey, defs []layout.WidgetDefinition) (*layout.Store, error)
	Session(key layout.PageKey) (*layout.Store, bool)
	ResetLayout(ctx context.Context, key layout.PageKey) error
	FetchLayout(ctx context.Context, key layout.PageKey) *layout.PageLayoutConfig
}

type definitionSource interface {
	Definitions(pageID string) ([]layout.WidgetDefinition, bool)
}

// NewHandlers wires every command and the session query against service.
// definitions may be nil when callers always post definitions.
func NewHandlers(service layoutService, definitions definitionSource, telemetry commands.Telemetry) *Handlers {
	return &Handlers{
		Open:       commands.NewOpenSessionCommand(service, definitions, telemetry),
		Move:       commands.NewMoveWidgetCommand(service, telemetry),
		Resize:     commands.NewResizeWidgetCommand(service, telemetry),
		Reorder:    commands.NewReorderWidgetCommand(service, telemetry),
		Visibility: commands.NewSetVisibilityCommand(service, telemetry),
		History:    commands.NewHistoryCommand(service, telemetry),
		Commit:     commands.NewCommitLayoutCommand(service, telemetry),
		Discard:    commands.NewDiscardLayoutCommand(service, telemetry),
		Reset:      commands.NewResetLayoutCommand(service, telemetry),
		Session:    queries.NewSessionQuery(service),
		Saved:      queries.NewSavedLayoutQuery(service, definitions),
	}
}

// Executor exposes the handlers' commanders through the Executor interface.
func (h *Handlers) Executor() Executor {
	return handlerExecutor{h: h}
}

var errNotConfigured = errors.New("httpapi: command not configured")

type handlerExecutor struct {
	h *Handlers
}

func (e handlerExecutor) OpenSession(ctx context.Context, in commands.OpenSessionInput) error {
	if e.h.Open == nil {
		return errNotConfigured
	}
	return e.h.Open.Execute(ctx, in)
}

func (e handlerExecutor) MoveWidget(ctx context.Context, in commands.MoveWidgetInput) error {
	if e.h.Move == nil {
		return errNotConfigured
	}
	return e.h.Move.Execute(ctx, in)
}

func (e handlerExecutor) ResizeWidget(ctx context.Context, in commands.ResizeWidgetInput) error {
	if e.h.Resize == nil {
		return errNotConfigured
	}
	return e.h.Resize.Execute(ctx, in)
}

func (e handlerExecutor) ReorderWidget(ctx context.Context, in commands.ReorderWidgetInput) error {
	if e.h.Reorder == nil {
		return errNotConfigured
	}
	return e.h.Reorder.Execute(ctx, in)
}

func (e handlerExecutor) SetVisibility(ctx context.Context, in commands.SetVisibilityInput) error {
	if e.h.Visibility == nil {
		return errNotConfigured
	}
	return e.h.Visibility.Execute(ctx, in)
}

func (e handlerExecutor) StepHistory(ctx context.Context, in commands.HistoryInput) error {
	if e.h.History == nil {
		return errNotConfigured
	}
	return e.h.History.Execute(ctx, in)
}

func (e handlerExecutor) Commit(ctx context.Context, in commands.SessionInput) error {
	if e.h.Commit == nil {
		return errNotConfigured
	}
	return e.h.Commit.Execute(ctx, in)
}

func (e handlerExecutor) Discard(ctx context.Context, in commands.SessionInput) error {
	if e.h.Discard == nil {
		return errNotConfigured
	}
	return e.h.Discard.Execute(ctx, in)
}

func (e handlerExecutor) Reset(ctx context.Context, in commands.SessionInput) error {
	if e.h.Reset == nil {
		return errNotConfigured
	}
	return e.h.Reset.Execute(ctx, in)
}

func (e handlerExecutor) Snapshot(ctx context.Context, key layout.PageKey) (layout.SessionSnapshot, error) {
	if e.h.Session == nil {
		return layout.SessionSnapshot{}, errNotConfigured
	}
	return e.h.Session.Query(ctx, key)
}

func (e handlerExecutor) SavedLayout(ctx context.Context, key layout.PageKey) ([]layout.WidgetPosition, error) {
	if e.h.Saved == nil {
		return nil, errNotConfigured
	}
	return e.h.Saved.Query(ctx, queries.SavedLayoutInput{Key: key})
}
