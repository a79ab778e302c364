package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbuilder/internal/domain"
	"formbuilder/internal/render"
	"formbuilder/internal/service"
)

func TestFormService_CreateValidatesName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.forms.CreateForm(ctx, "abc", "")
	assert.ErrorIs(t, err, service.ErrInvalidForm)

	form, err := f.forms.CreateForm(ctx, "  Survey  ", " about things ")
	require.NoError(t, err)
	assert.Equal(t, "Survey", form.Name)
	assert.Equal(t, "about things", form.Description)
	assert.NotEqual(t, form.ID, form.ShareURL)
	assert.Len(t, f.emitter.Named(service.EventFormCreated), 1)

	def, err := f.forms.Definition(form.ID)
	require.NoError(t, err)
	assert.Empty(t, def)
}

func TestFormService_SaveRejectsBadContent(t *testing.T) {
	f := newFixture(t)
	form := f.newForm(t)

	err := f.forms.Save(context.Background(), form.ID, `[{"id":"x","type":"Nope","extraAttributes":{}}]`)
	assert.ErrorIs(t, err, service.ErrInvalidForm)

	def, _ := f.forms.Definition(form.ID)
	assert.Equal(t, []string{"name", "email"}, def.IDs())
}

func TestFormService_PublishFreezes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.newForm(t)

	published, err := f.forms.Publish(ctx, form.ID)
	require.NoError(t, err)
	assert.True(t, published.Published)

	_, err = f.forms.Publish(ctx, form.ID)
	require.NoError(t, err)
	assert.Len(t, f.emitter.Named(service.EventFormPublished), 1)

	err = f.forms.Save(ctx, form.ID, "[]")
	assert.ErrorIs(t, err, service.ErrFormPublished)
}

func TestFormService_SubmitRequiresPublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.newForm(t)

	_, err := f.forms.Submit(ctx, form.ShareURL, `{"name":"Ada"}`)
	assert.ErrorIs(t, err, service.ErrFormNotPublished)

	_, err = f.forms.RecordVisit(form.ShareURL)
	assert.ErrorIs(t, err, service.ErrFormNotPublished)

	_, err = f.forms.Submit(ctx, "unknown", `{}`)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFormService_Submit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.newForm(t)
	_, err := f.forms.Publish(ctx, form.ID)
	require.NoError(t, err)

	_, err = f.forms.Submit(ctx, form.ShareURL, `{"email":"a@b.c"}`)
	var invalid *service.InvalidSubmissionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, []string{"name"}, invalid.Invalid)
	assert.ErrorIs(t, err, render.ErrInvalidValues)

	_, err = f.forms.Submit(ctx, form.ShareURL, `not json`)
	assert.ErrorIs(t, err, render.ErrInvalidValues)

	sub, err := f.forms.Submit(ctx, form.ShareURL, `{"name":"Ada","stray":"x"}`)
	require.NoError(t, err)
	values, err := domain.UnmarshalValues(sub.Content)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionValues{"name": "Ada"}, values)

	_, err = f.forms.RecordVisit(form.ShareURL)
	require.NoError(t, err)

	got, err := f.forms.GetForm(form.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Submissions)
	assert.Equal(t, 1, got.Visits)

	subs, err := f.forms.ListSubmissions(form.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	assert.Len(t, f.emitter.Named(service.EventFormSubmitted), 1)
}

func TestFormService_SubmitterDrivesFillSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.newForm(t)
	_, err := f.forms.Publish(ctx, form.ID)
	require.NoError(t, err)

	def, err := f.forms.Definition(form.ID)
	require.NoError(t, err)
	fill := render.New(f.registry).NewFillSession(def)
	fill.Change("name", "Grace")

	require.NoError(t, fill.Submit(ctx, f.forms.Submitter(form.ShareURL)))
	assert.True(t, fill.Submitted())

	subs, _ := f.forms.ListSubmissions(form.ID)
	require.Len(t, subs, 1)
	assert.JSONEq(t, `{"name":"Grace"}`, subs[0].Content)
}

func TestFormService_DeleteForm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.newForm(t)

	require.NoError(t, f.forms.DeleteForm(ctx, form.ID))
	_, err := f.forms.GetForm(form.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := f.forms.ListForms()
	require.NoError(t, err)
	assert.Empty(t, list)
}
