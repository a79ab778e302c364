package app

import (
	"errors"
	"fmt"

	"formbuilder/internal/designer"
	"formbuilder/internal/domain"
	"formbuilder/internal/service"
	"formbuilder/internal/storage"
	"formbuilder/internal/view"
)

// ============================================================
// Designer
// ============================================================
// Every binding returns the re-rendered designer so the frontend only swaps
// HTML. Mutations go through DesignerService.Do so each one is a single
// history step.

func isSessionNotOpen(err error) bool {
	return errors.Is(err, service.ErrSessionNotOpen)
}

func designerView(sess *designer.Session) *DesignerView {
	v := &DesignerView{
		FormID:   sess.FormID,
		Sidebar:  view.Render(sess.Sidebar()),
		Canvas:   view.Render(sess.Canvas()),
		Dragging: sess.DnD.State() == designer.StateDragging,
	}
	if id, ok := sess.Store.Selection(); ok {
		v.Selected = id
	}
	if o := sess.DnD.Overlay(); o != nil && o.Node != nil {
		v.Overlay = view.Render(o.Node)
	}
	return v
}

// update runs fn inside the open session of formID and renders the result.
func (a *App) update(formID string, fn func(*designer.Session) error) (*DesignerView, error) {
	var out *DesignerView
	err := a.designer.Do(formID, func(sess *designer.Session) error {
		err := fn(sess)
		out = designerView(sess)
		return err
	})
	return out, err
}

func (a *App) OpenDesigner(formID string) (*DesignerView, error) {
	if _, err := a.designer.Open(a.ctx, formID); err != nil {
		return nil, err
	}
	a.watcher.SetForm(formID)
	return a.update(formID, func(*designer.Session) error { return nil })
}

// CloseDesigner saves and drops the session.
func (a *App) CloseDesigner(formID string) error {
	err := a.designer.Save(a.ctx, formID)
	if errors.Is(err, service.ErrFormPublished) || isSessionNotOpen(err) {
		err = nil
	}
	a.designer.Close(formID)
	a.watcher.SetForm("")
	return err
}

// ReloadDesigner reopens the session from the stored form, dropping unsaved
// edits. Used after another process changed the form.
func (a *App) ReloadDesigner(formID string) (*DesignerView, error) {
	a.designer.Close(formID)
	return a.OpenDesigner(formID)
}

func (a *App) SaveDesigner(formID string) error {
	return a.designer.Save(a.ctx, formID)
}

// PreviewDesigner renders the unsaved field list as respondents would see it.
func (a *App) PreviewDesigner(formID string) (string, error) {
	var html string
	err := a.designer.Do(formID, func(sess *designer.Session) error {
		html = view.Render(sess.Preview())
		return nil
	})
	return html, err
}

// ── Pointer sessions ───────────────────────────────────────

func dropTarget(t DropTarget) *designer.Target {
	switch t.Zone {
	case "canvas":
		return designer.CanvasTarget()
	case "top":
		return designer.ElementTop(t.ElementID)
	case "bottom":
		return designer.ElementBottom(t.ElementID)
	}
	return nil
}

func (a *App) DesignerPointerDown(formID string, in PointerInput) (*DesignerView, error) {
	var src designer.Source
	switch {
	case in.Kind != "":
		src = designer.PaletteSource{Kind: domain.FieldKind(in.Kind)}
	case in.ElementID != "":
		src = designer.CanvasSource{ElementID: in.ElementID}
	default:
		return nil, fmt.Errorf("pointer down needs a palette kind or an element id")
	}
	pointer := designer.PointerMouse
	if in.Touch {
		pointer = designer.PointerTouch
	}
	return a.update(formID, func(sess *designer.Session) error {
		sess.DnD.PointerDown(src, designer.Point{X: in.X, Y: in.Y}, pointer)
		return nil
	})
}

func (a *App) DesignerPointerMove(formID string, x, y float64, over DropTarget) (*DesignerView, error) {
	return a.update(formID, func(sess *designer.Session) error {
		if over.ElementID != "" {
			sess.Hover(over.ElementID)
		}
		sess.DnD.PointerMove(designer.Point{X: x, Y: y}, dropTarget(over))
		return nil
	})
}

func (a *App) DesignerPointerUp(formID string, over DropTarget) (*DesignerView, error) {
	return a.update(formID, func(sess *designer.Session) error {
		sess.DnD.PointerUp(dropTarget(over))
		return nil
	})
}

func (a *App) DesignerCancelDrag(formID string) (*DesignerView, error) {
	return a.update(formID, func(sess *designer.Session) error {
		sess.DnD.Cancel()
		return nil
	})
}

// ── Element commands ───────────────────────────────────────

// InsertField is the keyboard counterpart of a palette drop.
func (a *App) InsertField(formID, kind string, index int) (*DesignerView, error) {
	return a.update(formID, func(sess *designer.Session) error {
		inst, err := sess.Insert(domain.FieldKind(kind), index)
		if err != nil {
			return err
		}
		sess.Store.SetSelection(inst.ID)
		return nil
	})
}

func (a *App) SelectField(formID, id string) (*DesignerView, error) {
	return a.update(formID, func(sess *designer.Session) error {
		sess.Store.SetSelection(id)
		return nil
	})
}

func (a *App) ClearSelection(formID string) (*DesignerView, error) {
	return a.update(formID, func(sess *designer.Session) error {
		sess.ClickBackground()
		return nil
	})
}

func (a *App) DeleteField(formID, id string) (*DesignerView, error) {
	return a.update(formID, func(sess *designer.Session) error {
		if !sess.Delete(id) {
			return fmt.Errorf("field %s: %w", id, domain.ErrNotFound)
		}
		return nil
	})
}

// ApplyProperties commits the properties panel of the selected field. On a
// schema failure the error names the invalid attributes and nothing changes.
func (a *App) ApplyProperties(formID string, in PropertiesInput) (*DesignerView, error) {
	return a.update(formID, func(sess *designer.Session) error {
		form, ok := sess.Properties()
		if !ok {
			return fmt.Errorf("no field selected")
		}
		for name, value := range in.Values {
			if err := form.Set(name, value); err != nil {
				return err
			}
		}
		if in.Options != nil {
			for len(form.Options()) > 0 {
				if err := form.RemoveOption(0); err != nil {
					return err
				}
			}
			for _, o := range in.Options {
				form.AddOption(o)
			}
		}
		return form.Blur()
	})
}

// ── History ────────────────────────────────────────────────

func (a *App) Undo(formID string) (*DesignerView, error) {
	if err := a.designer.Undo(a.ctx, formID); err != nil {
		return nil, err
	}
	return a.update(formID, func(*designer.Session) error { return nil })
}

func (a *App) Redo(formID string) (*DesignerView, error) {
	if err := a.designer.Redo(a.ctx, formID); err != nil {
		return nil, err
	}
	return a.update(formID, func(*designer.Session) error { return nil })
}

func (a *App) LoadHistory(formID string) (*storage.HistoryTree, error) {
	return a.designer.History(formID)
}
