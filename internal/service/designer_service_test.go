package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbuilder/internal/designer"
	"formbuilder/internal/domain"
	"formbuilder/internal/service"
)

func insert(t *testing.T, f *fixture, formID string, kind domain.FieldKind, index int) string {
	t.Helper()
	var id string
	require.NoError(t, f.designer.Do(formID, func(s *designer.Session) error {
		inst, err := s.Insert(kind, index)
		id = inst.ID
		return err
	}))
	return id
}

func elementIDs(t *testing.T, f *fixture, formID string) []string {
	t.Helper()
	var ids []string
	require.NoError(t, f.designer.Do(formID, func(s *designer.Session) error {
		ids = s.Store.Elements().IDs()
		return nil
	}))
	return ids
}

func TestDesignerService_OpenLoadsContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.newForm(t)

	sess, err := f.designer.Open(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email"}, sess.Store.Elements().IDs())

	again, err := f.designer.Open(ctx, form.ID)
	require.NoError(t, err)
	assert.Same(t, sess, again)

	tree, err := f.designer.History(form.ID)
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 1)
	assert.Equal(t, "open", tree.Nodes[0].Label)

	err = f.designer.Do("missing", func(*designer.Session) error { return nil })
	assert.ErrorIs(t, err, service.ErrSessionNotOpen)
}

func TestDesignerService_UndoRedo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.newForm(t)
	_, err := f.designer.Open(ctx, form.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.designer.Undo(ctx, form.ID), service.ErrNothingToUndo)

	title := insert(t, f, form.ID, domain.FieldKindTitle, 0)
	insert(t, f, form.ID, domain.FieldKindSeparator, 3)
	assert.Len(t, elementIDs(t, f, form.ID), 4)
	assert.NotEmpty(t, f.emitter.Named(service.EventDesignerChanged))

	require.NoError(t, f.designer.Undo(ctx, form.ID))
	assert.Equal(t, []string{title, "name", "email"}, elementIDs(t, f, form.ID))

	require.NoError(t, f.designer.Undo(ctx, form.ID))
	assert.Equal(t, []string{"name", "email"}, elementIDs(t, f, form.ID))

	require.NoError(t, f.designer.Redo(ctx, form.ID))
	assert.Equal(t, []string{title, "name", "email"}, elementIDs(t, f, form.ID))

	// Editing after an undo branches; redo follows the newest branch.
	require.NoError(t, f.designer.Undo(ctx, form.ID))
	spacer := insert(t, f, form.ID, domain.FieldKindSpacer, 0)
	assert.ErrorIs(t, f.designer.Redo(ctx, form.ID), service.ErrNothingToRedo)
	require.NoError(t, f.designer.Undo(ctx, form.ID))
	require.NoError(t, f.designer.Redo(ctx, form.ID))
	assert.Equal(t, []string{spacer, "name", "email"}, elementIDs(t, f, form.ID))
}

func TestDesignerService_SelectionDoesNotSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.newForm(t)
	_, err := f.designer.Open(ctx, form.ID)
	require.NoError(t, err)

	require.NoError(t, f.designer.Do(form.ID, func(s *designer.Session) error {
		s.Store.SetSelection("name")
		s.ClickBackground()
		return nil
	}))
	tree, err := f.designer.History(form.ID)
	require.NoError(t, err)
	assert.Len(t, tree.Nodes, 1)
}

func TestDesignerService_SaveAndReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.newForm(t)
	_, err := f.designer.Open(ctx, form.ID)
	require.NoError(t, err)

	require.NoError(t, f.designer.Do(form.ID, func(s *designer.Session) error {
		s.Delete("email")
		return nil
	}))
	require.NoError(t, f.designer.Save(ctx, form.ID))

	def, err := f.forms.Definition(form.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, def.IDs())

	f.designer.Close(form.ID)
	sess, err := f.designer.Open(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, sess.Store.Elements().IDs())

	// The saved content matches the latest snapshot, so reopening adds none.
	tree, _ := f.designer.History(form.ID)
	assert.Len(t, tree.Nodes, 2)
}

func TestDesignerService_SavePublishedFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.newForm(t)
	_, err := f.designer.Open(ctx, form.ID)
	require.NoError(t, err)
	_, err = f.forms.Publish(ctx, form.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.designer.Save(ctx, form.ID), service.ErrFormPublished)
}

func TestDesignerService_Forget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.newForm(t)
	_, err := f.designer.Open(ctx, form.ID)
	require.NoError(t, err)

	require.NoError(t, f.designer.Forget(form.ID))
	tree, err := f.designer.History(form.ID)
	require.NoError(t, err)
	assert.Nil(t, tree)
}

func TestDesignerService_MoveIsOneHistoryStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.newForm(t)
	_, err := f.designer.Open(ctx, form.ID)
	require.NoError(t, err)

	require.NoError(t, f.designer.Do(form.ID, func(s *designer.Session) error {
		assert.True(t, s.Move("name", "email", true))
		return nil
	}))
	assert.Equal(t, []string{"email", "name"}, elementIDs(t, f, form.ID))

	tree, err := f.designer.History(form.ID)
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 2)
	assert.Equal(t, "moved name", tree.Nodes[1].Label)

	require.NoError(t, f.designer.Undo(ctx, form.ID))
	assert.Equal(t, []string{"name", "email"}, elementIDs(t, f, form.ID))
}
