package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbuilder/internal/domain"
	"formbuilder/internal/service"
)

const feedbackTemplate = `{
  "name": "Feedback",
  "description": "Quick feedback form",
  "fields": [
    {"id": "t", "type": "TitleField", "extraAttributes": {"title": "Feedback"}},
    {"id": "c", "type": "TextareaField", "extraAttributes": {"label": "Comments", "helperText": "", "required": true, "placeholder": "", "rows": 4}}
  ]
}`

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestTemplateService_Reload(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "feedback.json", feedbackTemplate)
	writeTemplate(t, dir, "broken.json", `{"fields": [{"id": "x", "type": "SpacerField", "extraAttributes": {"height": 900}}]}`)
	writeTemplate(t, dir, "notes.txt", "ignored")

	s := service.NewTemplateService(dir, nil, nil)
	require.NoError(t, s.Reload())

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "feedback", list[0].Slug)
	assert.Equal(t, "Feedback", list[0].Name)
	assert.Equal(t, []string{"t", "c"}, list[0].Fields.IDs())

	_, err := s.Get("broken")
	assert.ErrorIs(t, err, service.ErrTemplateNotFound)
}

func TestTemplateService_SelectOptionsDeduplicatedOnLoad(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "colors.json", `{"fields": [
    {"id": "s", "type": "SelectField", "extraAttributes": {"label": "Color", "helperText": "", "required": false, "placeholder": "", "options": ["red", "blue", "red"]}}
  ]}`)

	s := service.NewTemplateService(dir, nil, nil)
	require.NoError(t, s.Reload())

	tpl, err := s.Get("colors")
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "blue"}, tpl.Fields[0].Attributes.(domain.SelectAttributes).Options)
}

func TestTemplateService_MissingDirIsEmpty(t *testing.T) {
	s := service.NewTemplateService(filepath.Join(t.TempDir(), "nope"), nil, nil)
	require.NoError(t, s.Reload())
	assert.Empty(t, s.List())
}

func TestTemplateService_CreateAndSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.newForm(t)

	saved, err := f.templates.SaveAsTemplate(form.ID, "contact")
	require.NoError(t, err)
	assert.Equal(t, "Contact form", saved.Name)

	_, err = f.templates.SaveAsTemplate(form.ID, "../escape")
	assert.Error(t, err)

	created, err := f.templates.CreateFromTemplate(ctx, "contact", "From template", "")
	require.NoError(t, err)
	assert.Equal(t, "contact", created.Template)

	def, err := f.forms.Definition(created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email"}, def.IDs())

	// A fresh reload finds the file written by SaveAsTemplate.
	require.NoError(t, f.templates.Reload())
	_, err = f.templates.Get("contact")
	assert.NoError(t, err)
}

func TestTemplateService_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	emitter := &service.MockEmitter{}
	s := service.NewTemplateService(dir, nil, emitter)
	require.NoError(t, s.Watch(context.Background()))
	defer s.Stop()

	writeTemplate(t, dir, "feedback.json", feedbackTemplate)

	require.Eventually(t, func() bool {
		_, err := s.Get("feedback")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
	require.Eventually(t, func() bool {
		return len(emitter.Named(service.EventTemplatesChanged)) > 0
	}, time.Second, 20*time.Millisecond)
}
