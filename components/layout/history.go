package layout

// UndoStack holds layout snapshots for undo and redo. Recording a new snapshot
// clears the redo side; the undo side keeps at most limit entries and evicts
// the oldest first.
type UndoStack struct {
	past   []LayoutSnapshot
	future []LayoutSnapshot
	limit  int
}

// NewUndoStack returns a stack bounded at limit (DefaultUndoDepth when not positive).
func NewUndoStack(limit int) *UndoStack {
	if limit <= 0 {
		limit = DefaultUndoDepth
	}
	return &UndoStack{limit: limit}
}

// Record pushes a deep copy of widgets.
func (s *UndoStack) Record(widgets []WidgetPosition) {
	s.past = append(s.past, LayoutSnapshot{Widgets: cloneWidgets(widgets)})
	if len(s.past) > s.limit {
		s.past = s.past[len(s.past)-s.limit:]
	}
	s.future = nil
}

// Undo pops the latest snapshot and parks current on the redo side.
func (s *UndoStack) Undo(current []WidgetPosition) (LayoutSnapshot, bool) {
	if len(s.past) == 0 {
		return LayoutSnapshot{}, false
	}
	prev := s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	s.future = append(s.future, LayoutSnapshot{Widgets: cloneWidgets(current)})
	return prev, true
}

// Redo reverses the latest Undo.
func (s *UndoStack) Redo(current []WidgetPosition) (LayoutSnapshot, bool) {
	if len(s.future) == 0 {
		return LayoutSnapshot{}, false
	}
	next := s.future[len(s.future)-1]
	s.future = s.future[:len(s.future)-1]
	s.past = append(s.past, LayoutSnapshot{Widgets: cloneWidgets(current)})
	if len(s.past) > s.limit {
		s.past = s.past[len(s.past)-s.limit:]
	}
	return next, true
}

func (s *UndoStack) CanUndo() bool { return len(s.past) > 0 }
func (s *UndoStack) CanRedo() bool { return len(s.future) > 0 }
func (s *UndoStack) Depth() int    { return len(s.past) }

// Clear drops both sides.
func (s *UndoStack) Clear() {
	s.past = nil
	s.future = nil
}

// ChangeLog is the list of pending change records since the last commit,
// plus the records taken back by undo so redo can restore them.
type ChangeLog struct {
	pending []LayoutChange
	undone  []LayoutChange
}

// Append adds a new record and forgets undone ones.
func (l *ChangeLog) Append(change LayoutChange) {
	l.pending = append(l.pending, change)
	l.undone = nil
}

// PopForUndo moves the latest pending record to the undone list.
func (l *ChangeLog) PopForUndo() (LayoutChange, bool) {
	if len(l.pending) == 0 {
		return LayoutChange{}, false
	}
	last := l.pending[len(l.pending)-1]
	l.pending = l.pending[:len(l.pending)-1]
	l.undone = append(l.undone, last)
	return last, true
}

// PopForRedo restores the latest undone record.
func (l *ChangeLog) PopForRedo() (LayoutChange, bool) {
	if len(l.undone) == 0 {
		return LayoutChange{}, false
	}
	last := l.undone[len(l.undone)-1]
	l.undone = l.undone[:len(l.undone)-1]
	l.pending = append(l.pending, last)
	return last, true
}

// Pending returns a copy of the pending records, oldest first.
func (l *ChangeLog) Pending() []LayoutChange {
	out := make([]LayoutChange, len(l.pending))
	copy(out, l.pending)
	return out
}

func (l *ChangeLog) Len() int { return len(l.pending) }

// Clear drops all records.
func (l *ChangeLog) Clear() {
	l.pending = nil
	l.undone = nil
}
