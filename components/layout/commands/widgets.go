package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-gridlayout/components/layout"
)

// MoveWidgetInput places a widget at an explicit row and column.
type MoveWidgetInput struct {
	SessionInput
	WidgetID string `json:"widget_id"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
}

// MoveWidgetCommand wraps Store.UpdateWidgetPosition.
type MoveWidgetCommand struct {
	sessions  sessionProvider
	telemetry Telemetry
}

// NewMoveWidgetCommand builds the command.
func NewMoveWidgetCommand(sessions sessionProvider, telemetry Telemetry) *MoveWidgetCommand {
	return &MoveWidgetCommand{sessions: sessions, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[MoveWidgetInput] = (*MoveWidgetCommand)(nil)

// Execute moves the widget. Columns outside the grid are rejected.
func (c *MoveWidgetCommand) Execute(ctx context.Context, msg MoveWidgetInput) error {
	if c.sessions == nil {
		return errors.New("move command requires service")
	}
	if msg.Row < 0 || msg.Col < 0 || msg.Col >= layout.GridColumns {
		return fmt.Errorf("move command: position (%d,%d) outside grid: %w", msg.Row, msg.Col, layout.ErrInvalidInput)
	}
	store, err := lookupSession(c.sessions, msg.SessionInput)
	if err != nil {
		return err
	}
	if err := store.UpdateWidgetPosition(ctx, msg.WidgetID, msg.Row, msg.Col); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "layout.command.move", map[string]any{
		"client_id": msg.ClientID,
		"page_id":   msg.PageID,
		"widget_id": msg.WidgetID,
	})
	return nil
}

// ResizeWidgetInput sets a widget's size.
type ResizeWidgetInput struct {
	SessionInput
	WidgetID string `json:"widget_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// ResizeWidgetCommand clamps the requested size to the widget type's minimum
// and the grid width, then wraps Store.UpdateWidgetSize.
type ResizeWidgetCommand struct {
	sessions  sessionProvider
	telemetry Telemetry
}

// NewResizeWidgetCommand builds the command.
func NewResizeWidgetCommand(sessions sessionProvider, telemetry Telemetry) *ResizeWidgetCommand {
	return &ResizeWidgetCommand{sessions: sessions, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ResizeWidgetInput] = (*ResizeWidgetCommand)(nil)

// Execute resizes the widget.
func (c *ResizeWidgetCommand) Execute(ctx context.Context, msg ResizeWidgetInput) error {
	if c.sessions == nil {
		return errors.New("resize command requires service")
	}
	store, err := lookupSession(c.sessions, msg.SessionInput)
	if err != nil {
		return err
	}
	pos, ok := store.WidgetPosition(msg.WidgetID)
	if !ok {
		return fmt.Errorf("%w: %s", layout.ErrWidgetNotFound, msg.WidgetID)
	}
	floor := pos.WidgetType.MinSize()
	width := min(max(msg.Width, floor.Width), layout.GridColumns)
	height := max(msg.Height, floor.Height)
	if err := store.UpdateWidgetSize(ctx, msg.WidgetID, width, height); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "layout.command.resize", map[string]any{
		"client_id": msg.ClientID,
		"page_id":   msg.PageID,
		"widget_id": msg.WidgetID,
		"width":     width,
		"height":    height,
	})
	return nil
}

// ReorderWidgetInput moves a widget either in front of TargetWidgetID or to
// TargetIndex of the visible list without the dragged widget.
type ReorderWidgetInput struct {
	SessionInput
	WidgetID       string `json:"widget_id"`
	TargetWidgetID string `json:"target_widget_id,omitempty"`
	TargetIndex    *int   `json:"target_index,omitempty"`
}

// ReorderWidgetCommand wraps the Store reorder operations.
type ReorderWidgetCommand struct {
	sessions  sessionProvider
	telemetry Telemetry
}

// NewReorderWidgetCommand builds the command.
func NewReorderWidgetCommand(sessions sessionProvider, telemetry Telemetry) *ReorderWidgetCommand {
	return &ReorderWidgetCommand{sessions: sessions, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ReorderWidgetInput] = (*ReorderWidgetCommand)(nil)

// Execute applies the new ordering.
func (c *ReorderWidgetCommand) Execute(ctx context.Context, msg ReorderWidgetInput) error {
	if c.sessions == nil {
		return errors.New("reorder command requires service")
	}
	if (msg.TargetWidgetID == "") == (msg.TargetIndex == nil) {
		return fmt.Errorf("reorder command requires exactly one of target_widget_id or target_index: %w", layout.ErrInvalidInput)
	}
	store, err := lookupSession(c.sessions, msg.SessionInput)
	if err != nil {
		return err
	}
	if msg.TargetIndex != nil {
		err = store.ReorderWidgetsByIndex(ctx, msg.WidgetID, *msg.TargetIndex)
	} else {
		err = store.ReorderWidgets(ctx, msg.WidgetID, msg.TargetWidgetID)
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "layout.command.reorder", map[string]any{
		"client_id": msg.ClientID,
		"page_id":   msg.PageID,
		"widget_id": msg.WidgetID,
	})
	return nil
}

// SetVisibilityInput hides or shows a widget.
type SetVisibilityInput struct {
	SessionInput
	WidgetID string `json:"widget_id"`
	Hidden   bool   `json:"hidden"`
}

// SetVisibilityCommand wraps Store.HideWidget and Store.ShowWidget.
type SetVisibilityCommand struct {
	sessions  sessionProvider
	telemetry Telemetry
}

// NewSetVisibilityCommand builds the command.
func NewSetVisibilityCommand(sessions sessionProvider, telemetry Telemetry) *SetVisibilityCommand {
	return &SetVisibilityCommand{sessions: sessions, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetVisibilityInput] = (*SetVisibilityCommand)(nil)

// Execute toggles visibility.
func (c *SetVisibilityCommand) Execute(ctx context.Context, msg SetVisibilityInput) error {
	if c.sessions == nil {
		return errors.New("visibility command requires service")
	}
	store, err := lookupSession(c.sessions, msg.SessionInput)
	if err != nil {
		return err
	}
	if msg.Hidden {
		err = store.HideWidget(ctx, msg.WidgetID)
	} else {
		err = store.ShowWidget(ctx, msg.WidgetID)
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "layout.command.visibility", map[string]any{
		"client_id": msg.ClientID,
		"page_id":   msg.PageID,
		"widget_id": msg.WidgetID,
		"hidden":    msg.Hidden,
	})
	return nil
}

// HistoryInput steps the undo history of a session.
type HistoryInput struct {
	SessionInput
	Redo bool `json:"redo,omitempty"`
}

// HistoryCommand wraps Store.UndoLastChange and Store.RedoLastChange. Stepping
// past either end is a no-op.
type HistoryCommand struct {
	sessions  sessionProvider
	telemetry Telemetry
}

// NewHistoryCommand builds the command.
func NewHistoryCommand(sessions sessionProvider, telemetry Telemetry) *HistoryCommand {
	return &HistoryCommand{sessions: sessions, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[HistoryInput] = (*HistoryCommand)(nil)

// Execute undoes or redoes one change.
func (c *HistoryCommand) Execute(ctx context.Context, msg HistoryInput) error {
	if c.sessions == nil {
		return errors.New("history command requires service")
	}
	store, err := lookupSession(c.sessions, msg.SessionInput)
	if err != nil {
		return err
	}
	var applied bool
	event := "layout.command.undo"
	if msg.Redo {
		applied = store.RedoLastChange(ctx)
		event = "layout.command.redo"
	} else {
		applied = store.UndoLastChange(ctx)
	}
	c.telemetry.Record(ctx, event, map[string]any{
		"client_id": msg.ClientID,
		"page_id":   msg.PageID,
		"applied":   applied,
	})
	return nil
}
