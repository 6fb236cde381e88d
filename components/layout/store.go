package layout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// StoreOptions configures a Layout Store.
type StoreOptions struct {
	Key       PageKey
	UndoDepth int
	Telemetry Telemetry
	Logger    *slog.Logger
}

// Store owns the in-memory layout of one page during an editing session: the
// working widget list, the last committed baseline, the undo history and the
// pending change log. All methods are safe for concurrent use.
//
// rev moves on every change to the working list and epoch whenever the
// baseline is reset, so a commit can tell whether the store changed while
// the save callback ran.
type Store struct {
	mu          sync.Mutex
	key         PageKey
	widgets     []WidgetPosition
	original    []WidgetPosition
	definitions []WidgetDefinition
	density     GridDensity
	history     *UndoStack
	changes     ChangeLog
	save        SaveFunc
	rev         uint64
	epoch       uint64
	telemetry   Telemetry
	logger      *slog.Logger
}

// NewStore builds an empty store. Call InitializeLayout before editing.
func NewStore(opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		key:       opts.Key,
		density:   DensityNormal,
		history:   NewUndoStack(opts.UndoDepth),
		telemetry: normalizeTelemetry(opts.Telemetry),
		logger:    logger.With(slog.String("layout_key", opts.Key.String())),
	}
}

// Key returns the (client, page) pair the store edits.
func (s *Store) Key() PageKey {
	return s.key
}

// InitializeLayout merges saved with definitions and resets the baseline and
// both logs.
func (s *Store) InitializeLayout(definitions []WidgetDefinition, saved *PageLayoutConfig) {
	merged := MergeLayout(saved, definitions)
	defs := append([]WidgetDefinition(nil), definitions...)
	density := DensityNormal
	if saved != nil && saved.GridDensity != "" {
		density = saved.GridDensity
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.widgets = merged
	s.original = cloneWidgets(merged)
	s.definitions = defs
	s.density = density
	s.history.Clear()
	s.changes.Clear()
	s.rev++
	s.epoch++
}

// RegisterSaveCallback sets the function CommitChanges persists through.
func (s *Store) RegisterSaveCallback(fn SaveFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save = fn
}

// Widgets returns a copy of the working list.
func (s *Store) Widgets() []WidgetPosition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneWidgets(s.widgets)
}

// GridDensity returns the density carried with the layout.
func (s *Store) GridDensity() GridDensity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.density
}

// WidgetPosition returns the current position of widgetID.
func (s *Store) WidgetPosition(widgetID string) (WidgetPosition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOfWidget(s.widgets, widgetID)
	if idx < 0 {
		return WidgetPosition{}, false
	}
	return s.widgets[idx], true
}

// UpdateWidgetPosition moves a widget to (row, col) without repacking others.
func (s *Store) UpdateWidgetPosition(ctx context.Context, widgetID string, row, col int) error {
	s.mu.Lock()
	idx := indexOfWidget(s.widgets, widgetID)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, widgetID)
	}
	prev := s.widgets[idx]
	s.history.Record(s.widgets)
	s.widgets[idx].Row = row
	s.widgets[idx].Col = col
	s.appendChange(ChangeMove, widgetID, placementPatch(prev.Row, prev.Col), placementPatch(row, col), nil)
	s.mu.Unlock()

	s.record(ctx, EventWidgetMove, map[string]any{"widget_id": widgetID, "row": row, "col": col})
	return nil
}

// UpdateWidgetSize sets a widget's width and height. Callers clamp first; the
// resize controller already does.
func (s *Store) UpdateWidgetSize(ctx context.Context, widgetID string, width, height int) error {
	s.mu.Lock()
	idx := indexOfWidget(s.widgets, widgetID)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, widgetID)
	}
	prev := s.widgets[idx]
	s.history.Record(s.widgets)
	s.widgets[idx].Width = width
	s.widgets[idx].Height = height
	s.appendChange(ChangeResize, widgetID, sizePatch(prev.Width, prev.Height), sizePatch(width, height), nil)
	s.mu.Unlock()

	s.record(ctx, EventWidgetResize, map[string]any{"widget_id": widgetID, "width": width, "height": height})
	return nil
}

// ReorderWidgets moves draggedID to the slot targetID occupies in the full
// list, then repacks.
func (s *Store) ReorderWidgets(ctx context.Context, draggedID, targetID string) error {
	s.mu.Lock()
	from := indexOfWidget(s.widgets, draggedID)
	if from < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, draggedID)
	}
	to := indexOfWidget(s.widgets, targetID)
	if to < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, targetID)
	}
	if from == to {
		s.mu.Unlock()
		return nil
	}
	next := cloneWidgets(s.widgets)
	dragged := next[from]
	next = append(next[:from], next[from+1:]...)
	next = insertWidget(next, to, dragged)
	s.applyReorder(draggedID, Repack(next))
	s.mu.Unlock()

	s.record(ctx, EventWidgetReorder, map[string]any{"widget_id": draggedID, "target_id": targetID})
	return nil
}

// ReorderWidgetsByIndex moves draggedID within the visible list. targetIndex
// indexes the visible list with the dragged widget removed, as returned by
// FindInsertIndex, and is clamped into range. Visible widgets are repacked;
// hidden ones are appended after them unchanged.
func (s *Store) ReorderWidgetsByIndex(ctx context.Context, draggedID string, targetIndex int) error {
	s.mu.Lock()
	visible, hidden := partitionVisible(s.widgets)
	from := indexOfWidget(visible, draggedID)
	if from < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, draggedID)
	}
	if from == targetIndex {
		s.mu.Unlock()
		return nil
	}
	dragged := visible[from]
	rest := append(cloneWidgets(visible[:from]), visible[from+1:]...)
	target := clampInt(targetIndex, 0, len(rest))
	next := append(Repack(insertWidget(rest, target, dragged)), hidden...)
	s.applyReorder(draggedID, next)
	s.mu.Unlock()

	s.record(ctx, EventWidgetReorder, map[string]any{"widget_id": draggedID, "target_index": target})
	return nil
}

func insertWidget(widgets []WidgetPosition, at int, w WidgetPosition) []WidgetPosition {
	widgets = append(widgets, WidgetPosition{})
	copy(widgets[at+1:], widgets[at:])
	widgets[at] = w
	return widgets
}

// applyReorder must be called with s.mu held.
func (s *Store) applyReorder(draggedID string, next []WidgetPosition) {
	before := make(map[string]WidgetPosition, len(s.widgets))
	for _, w := range s.widgets {
		before[w.WidgetID] = w
	}
	var affected []string
	var prev, curr WidgetPosition
	for _, w := range next {
		old := before[w.WidgetID]
		if w.WidgetID == draggedID {
			prev, curr = old, w
			continue
		}
		if old.Row != w.Row || old.Col != w.Col {
			affected = append(affected, w.WidgetID)
		}
	}
	s.history.Record(s.widgets)
	s.widgets = next
	s.appendChange(ChangeReorder, draggedID, placementPatch(prev.Row, prev.Col), placementPatch(curr.Row, curr.Col), affected)
}

// HideWidget sets a widget's width to zero.
func (s *Store) HideWidget(ctx context.Context, widgetID string) error {
	s.mu.Lock()
	idx := indexOfWidget(s.widgets, widgetID)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, widgetID)
	}
	prev := s.widgets[idx].Width
	s.history.Record(s.widgets)
	s.widgets[idx].Width = 0
	s.appendChange(ChangeHide, widgetID, widthPatch(prev), widthPatch(0), nil)
	s.mu.Unlock()

	s.record(ctx, EventWidgetHide, map[string]any{"widget_id": widgetID})
	return nil
}

// ShowWidget restores the width the widget had in the committed baseline. If
// the baseline itself has it hidden, the definition's default width is used.
func (s *Store) ShowWidget(ctx context.Context, widgetID string) error {
	s.mu.Lock()
	idx := indexOfWidget(s.widgets, widgetID)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, widgetID)
	}
	orig := indexOfWidget(s.original, widgetID)
	if orig < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s has no baseline", ErrWidgetNotFound, widgetID)
	}
	width := s.original[orig].Width
	if width == 0 {
		width = s.defaultWidth(widgetID)
	}
	prev := s.widgets[idx].Width
	s.history.Record(s.widgets)
	s.widgets[idx].Width = width
	s.appendChange(ChangeShow, widgetID, widthPatch(prev), widthPatch(width), nil)
	s.mu.Unlock()

	s.record(ctx, EventWidgetShow, map[string]any{"widget_id": widgetID, "width": width})
	return nil
}

func (s *Store) defaultWidth(widgetID string) int {
	for _, def := range s.definitions {
		if def.WidgetID == widgetID {
			return def.DefaultWidth
		}
	}
	return 0
}

func (s *Store) definitionList() []WidgetDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]WidgetDefinition(nil), s.definitions...)
}

// appendChange must be called with s.mu held.
func (s *Store) appendChange(kind ChangeType, widgetID string, prev, next PositionPatch, affected []string) {
	s.rev++
	s.changes.Append(LayoutChange{
		ID:            uuid.NewString(),
		Type:          kind,
		WidgetID:      widgetID,
		PreviousValue: prev,
		NewValue:      next,
		Affected:      affected,
	})
}

// UndoLastChange restores the latest snapshot and drops the latest change
// record. It reports false when there is nothing to undo.
func (s *Store) UndoLastChange(ctx context.Context) bool {
	s.mu.Lock()
	snapshot, ok := s.history.Undo(s.widgets)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.widgets = snapshot.Widgets
	s.rev++
	change, _ := s.changes.PopForUndo()
	s.mu.Unlock()

	s.record(ctx, EventUndo, map[string]any{"change_id": change.ID, "change_type": string(change.Type)})
	return true
}

// HandleUndo is UndoLastChange without a result, for edit-mode hosts.
func (s *Store) HandleUndo() {
	s.UndoLastChange(context.Background())
}

// RedoLastChange reapplies the latest undone mutation.
func (s *Store) RedoLastChange(ctx context.Context) bool {
	s.mu.Lock()
	snapshot, ok := s.history.Redo(s.widgets)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.widgets = snapshot.Widgets
	s.rev++
	change, _ := s.changes.PopForRedo()
	s.mu.Unlock()

	s.record(ctx, EventRedo, map[string]any{"change_id": change.ID, "change_type": string(change.Type)})
	return true
}

// CanUndo reports whether a snapshot is available.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether an undone mutation can be reapplied.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// HasPendingChanges reports whether the change log is non-empty.
func (s *Store) HasPendingChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changes.Len() > 0
}

// PendingChanges returns the change log, oldest first.
func (s *Store) PendingChanges() []LayoutChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changes.Pending()
}

// CommitChanges persists the visible widgets through the save callback. On
// success the committed list becomes the new baseline and both logs are
// cleared; on failure pending changes are kept and the error is returned.
// Edits made while the callback runs are not part of the payload, so they stay
// pending and undoable. A discard or re-initialization during the callback
// keeps the baseline it set.
func (s *Store) CommitChanges(ctx context.Context) error {
	s.mu.Lock()
	save := s.save
	if save == nil {
		s.mu.Unlock()
		return ErrNoSaveCallback
	}
	committed := cloneWidgets(s.widgets)
	payload := Flatten(committed, s.density)
	pending := s.changes.Len()
	rev, epoch := s.rev, s.epoch
	s.mu.Unlock()

	if err := save(ctx, payload); err != nil {
		s.logger.Warn("layout commit failed", slog.Int("pending_changes", pending), slog.Any("error", err))
		s.record(ctx, EventCommitFailed, map[string]any{"pending_changes": pending, "error": err.Error()})
		return fmt.Errorf("layout: commit %s: %w", s.key, err)
	}

	s.mu.Lock()
	switch {
	case s.epoch != epoch:
	case s.rev != rev:
		s.original = committed
	default:
		s.original = committed
		s.history.Clear()
		s.changes.Clear()
	}
	s.mu.Unlock()

	s.record(ctx, EventCommit, map[string]any{"widgets": len(payload.Widgets), "changes": pending})
	return nil
}

// DiscardChanges restores the committed baseline and clears both logs.
func (s *Store) DiscardChanges() {
	s.mu.Lock()
	s.widgets = cloneWidgets(s.original)
	s.history.Clear()
	s.changes.Clear()
	s.rev++
	s.epoch++
	s.mu.Unlock()

	s.record(context.Background(), EventDiscard, nil)
}

// Snapshot returns a read-only view of the store.
func (s *Store) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		Key:               s.key,
		Widgets:           cloneWidgets(s.widgets),
		PendingChanges:    s.changes.Pending(),
		HasPendingChanges: s.changes.Len() > 0,
		CanUndo:           s.history.CanUndo(),
		CanRedo:           s.history.CanRedo(),
		GridDensity:       s.density,
	}
}

// NewResizeController returns a resize controller for widgetID that commits
// through UpdateWidgetSize.
func (s *Store) NewResizeController(widgetID string) (*ResizeController, error) {
	pos, ok := s.WidgetPosition(widgetID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWidgetNotFound, widgetID)
	}
	return NewResizeController(widgetID, pos.WidgetType, func(id string, width, height int) {
		if err := s.UpdateWidgetSize(context.Background(), id, width, height); err != nil {
			s.logger.Warn("resize commit dropped", slog.String("widget_id", id), slog.Any("error", err))
		}
	}), nil
}

// NewDragController returns a drag controller whose drops reorder this store.
func (s *Store) NewDragController(geometry GeometryProvider, scheduler FrameScheduler, enabled func() bool) *DragController {
	return NewDragController(DragOptions{
		Geometry:  geometry,
		Scheduler: scheduler,
		Enabled:   enabled,
		OnReorder: func(draggedID string, targetIndex int) {
			if err := s.ReorderWidgetsByIndex(context.Background(), draggedID, targetIndex); err != nil {
				s.logger.Warn("drag reorder dropped", slog.String("widget_id", draggedID), slog.Any("error", err))
			}
		},
	})
}

func (s *Store) record(ctx context.Context, event string, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["client_id"] = s.key.ClientID
	payload["page_id"] = s.key.PageID
	s.telemetry.Record(ctx, event, payload)
}
