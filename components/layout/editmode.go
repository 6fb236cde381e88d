package layout

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Participant is a layout that joins page-wide edit mode. *Store satisfies it.
type Participant interface {
	CommitChanges(ctx context.Context) error
	DiscardChanges()
	HasPendingChanges() bool
	CanUndo() bool
	HandleUndo()
}

var _ Participant = (*Store)(nil)

// EditMode coordinates every layout on a page under one edit toggle, with
// page-wide save, cancel and undo.
type EditMode struct {
	mu           sync.RWMutex
	editing      bool
	participants map[int]Participant
	order        []int
	next         int
}

// NewEditMode returns a controller with editing off.
func NewEditMode() *EditMode {
	return &EditMode{participants: make(map[int]Participant)}
}

// Register adds p and returns a func removing it again.
func (m *EditMode) Register(p Participant) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.participants[id] = p
	m.order = append(m.order, id)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.participants[id]; !ok {
			return
		}
		delete(m.participants, id)
		for i, v := range m.order {
			if v == id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
}

func (m *EditMode) snapshot() []Participant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Participant, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.participants[id])
	}
	return out
}

// Editing reports whether edit mode is on.
func (m *EditMode) Editing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.editing
}

// SetEditing switches edit mode on or off without touching participants.
func (m *EditMode) SetEditing(editing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editing = editing
}

// Toggle flips edit mode and returns the new value.
func (m *EditMode) Toggle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editing = !m.editing
	return m.editing
}

// Save commits every participant concurrently. Edit mode is left only when all
// commits succeed; the first error is returned otherwise.
func (m *EditMode) Save(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range m.snapshot() {
		if !p.HasPendingChanges() {
			continue
		}
		g.Go(func() error {
			return p.CommitChanges(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	m.SetEditing(false)
	return nil
}

// Cancel discards every participant and leaves edit mode.
func (m *EditMode) Cancel() {
	for _, p := range m.snapshot() {
		p.DiscardChanges()
	}
	m.SetEditing(false)
}

// Undo undoes on the first participant, in registration order, that can.
func (m *EditMode) Undo() bool {
	for _, p := range m.snapshot() {
		if p.CanUndo() {
			p.HandleUndo()
			return true
		}
	}
	return false
}

// HasPendingChanges reports whether any participant has pending changes.
func (m *EditMode) HasPendingChanges() bool {
	for _, p := range m.snapshot() {
		if p.HasPendingChanges() {
			return true
		}
	}
	return false
}

// CanUndo reports whether any participant can undo.
func (m *EditMode) CanUndo() bool {
	for _, p := range m.snapshot() {
		if p.CanUndo() {
			return true
		}
	}
	return false
}
