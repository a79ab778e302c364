package app

import "formbuilder/internal/service"

// ============================================================
// Templates
// ============================================================

func (a *App) ListTemplates() []service.Template {
	return a.templates.List()
}

func (a *App) CreateFormFromTemplate(slug, name, description string) (*FormView, error) {
	f, err := a.templates.CreateFromTemplate(a.ctx, slug, name, description)
	if err != nil {
		return nil, err
	}
	v := a.formView(f)
	return &v, nil
}

func (a *App) SaveFormAsTemplate(formID, slug string) (service.Template, error) {
	if err := a.designer.Save(a.ctx, formID); err != nil && !isSessionNotOpen(err) {
		return service.Template{}, err
	}
	return a.templates.SaveAsTemplate(formID, slug)
}
