package app

import (
	"formbuilder/internal/domain"
	"formbuilder/internal/view"
)

// ============================================================
// Forms
// ============================================================

func (a *App) formView(f *domain.Form) FormView {
	v := FormView{Form: *f}
	if f.Published {
		v.ShareLink = a.cfg.ShareLink(f.ShareURL)
	}
	return v
}

func (a *App) ListForms() ([]FormView, error) {
	forms, err := a.forms.ListForms()
	if err != nil {
		return nil, err
	}
	out := make([]FormView, 0, len(forms))
	for i := range forms {
		out = append(out, a.formView(&forms[i]))
	}
	return out, nil
}

func (a *App) CreateForm(name, description string) (*FormView, error) {
	f, err := a.forms.CreateForm(a.ctx, name, description)
	if err != nil {
		return nil, err
	}
	v := a.formView(f)
	return &v, nil
}

func (a *App) GetForm(id string) (*FormView, error) {
	f, err := a.forms.GetForm(id)
	if err != nil {
		return nil, err
	}
	v := a.formView(f)
	return &v, nil
}

// PublishForm saves pending designer edits, then freezes the form.
func (a *App) PublishForm(id string) (*FormView, error) {
	if err := a.designer.Save(a.ctx, id); err != nil && !isSessionNotOpen(err) {
		return nil, err
	}
	f, err := a.forms.Publish(a.ctx, id)
	if err != nil {
		return nil, err
	}
	a.designer.Close(id)
	v := a.formView(f)
	return &v, nil
}

func (a *App) DeleteForm(id string) error {
	if err := a.designer.Forget(id); err != nil {
		return err
	}
	return a.forms.DeleteForm(a.ctx, id)
}

// PreviewForm renders the form the way respondents see it, without submitting.
func (a *App) PreviewForm(id string) (string, error) {
	def, err := a.forms.Definition(id)
	if err != nil {
		return "", err
	}
	return view.Render(a.pipeline.ViewOnly(def, nil)), nil
}

// ListSubmissions returns the submissions of a form, each rendered read-only.
func (a *App) ListSubmissions(formID string) ([]SubmissionView, error) {
	def, err := a.forms.Definition(formID)
	if err != nil {
		return nil, err
	}
	subs, err := a.forms.ListSubmissions(formID)
	if err != nil {
		return nil, err
	}
	out := make([]SubmissionView, 0, len(subs))
	for _, sub := range subs {
		values, err := domain.UnmarshalValues(sub.Content)
		if err != nil {
			values = domain.SubmissionValues{}
		}
		out = append(out, SubmissionView{
			Submission: sub,
			HTML:       view.Render(a.pipeline.ViewOnly(def, values)),
		})
	}
	return out, nil
}
