package layout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParticipant struct {
	pending   bool
	canUndo   bool
	commitErr error
	commits   atomic.Int32
	discards  int
	undos     int
}

func (p *stubParticipant) CommitChanges(context.Context) error {
	p.commits.Add(1)
	return p.commitErr
}
func (p *stubParticipant) DiscardChanges()         { p.discards++ }
func (p *stubParticipant) HasPendingChanges() bool { return p.pending }
func (p *stubParticipant) CanUndo() bool           { return p.canUndo }
func (p *stubParticipant) HandleUndo()             { p.undos++ }

func TestEditModeSaveCommitsAll(t *testing.T) {
	mode := NewEditMode()
	first := &stubParticipant{pending: true}
	second := &stubParticipant{pending: true}
	clean := &stubParticipant{}
	mode.Register(first)
	mode.Register(second)
	mode.Register(clean)
	mode.SetEditing(true)

	require.NoError(t, mode.Save(context.Background()))
	assert.EqualValues(t, 1, first.commits.Load())
	assert.EqualValues(t, 1, second.commits.Load())
	assert.EqualValues(t, 0, clean.commits.Load())
	assert.False(t, mode.Editing())
}

func TestEditModeSaveFailureStaysEditing(t *testing.T) {
	mode := NewEditMode()
	boom := errors.New("boom")
	mode.Register(&stubParticipant{pending: true, commitErr: boom})
	mode.SetEditing(true)

	assert.ErrorIs(t, mode.Save(context.Background()), boom)
	assert.True(t, mode.Editing())
}

func TestEditModeCancelAndUndo(t *testing.T) {
	mode := NewEditMode()
	first := &stubParticipant{}
	second := &stubParticipant{canUndo: true, pending: true}
	third := &stubParticipant{canUndo: true}
	mode.Register(first)
	unregister := mode.Register(second)
	mode.Register(third)
	assert.True(t, mode.Toggle())

	assert.True(t, mode.HasPendingChanges())
	assert.True(t, mode.CanUndo())
	assert.True(t, mode.Undo())
	assert.Equal(t, 1, second.undos)
	assert.Equal(t, 0, third.undos)

	unregister()
	unregister()
	assert.False(t, mode.HasPendingChanges())
	mode.Undo()
	assert.Equal(t, 1, third.undos)

	mode.Cancel()
	assert.Equal(t, 1, first.discards)
	assert.Equal(t, 0, second.discards)
	assert.Equal(t, 1, third.discards)
	assert.False(t, mode.Editing())
}

func TestEditModeWithStores(t *testing.T) {
	ctx := context.Background()
	svc := NewService(Options{})
	top, err := svc.OpenSession(ctx, PageKey{ClientID: "acme", PageID: "top"}, threeWidgets())
	require.NoError(t, err)
	bottom, err := svc.OpenSession(ctx, PageKey{ClientID: "acme", PageID: "bottom"}, threeWidgets())
	require.NoError(t, err)

	mode := NewEditMode()
	mode.Register(top)
	mode.Register(bottom)

	require.NoError(t, bottom.HideWidget(ctx, "A"))
	assert.True(t, mode.HasPendingChanges())
	require.True(t, mode.Undo())
	assert.False(t, mode.HasPendingChanges())

	require.NoError(t, top.UpdateWidgetSize(ctx, "A", 6, 100))
	require.NoError(t, mode.Save(ctx))
	assert.False(t, top.HasPendingChanges())
	saved := svc.FetchLayout(ctx, PageKey{ClientID: "acme", PageID: "top"})
	require.NotNil(t, saved)
	assert.Equal(t, 6, saved.Widgets[0].Width)
}
