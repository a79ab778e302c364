// Package httpserver serves published forms to respondents at /f/{shareURL}.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/html"

	"formbuilder/internal/domain"
	"formbuilder/internal/render"
	"formbuilder/internal/service"
	"formbuilder/internal/view"
)

// maxBody bounds submitted payloads.
const maxBody = 1 << 20

type Server struct {
	forms    *service.FormService
	pipeline *render.Pipeline
	mounts   map[string]http.Handler
	srv      *http.Server
}

func New(forms *service.FormService, pipeline *render.Pipeline) *Server {
	return &Server{forms: forms, pipeline: pipeline, mounts: map[string]http.Handler{}}
}

// Mount serves h under pattern, outside the request timeout. Call before Start.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.mounts[pattern] = h
}

// Routes builds the router. Exposed for httptest.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Route("/f/{shareURL}", func(r chi.Router) {
			r.Get("/", s.showForm)
			r.Post("/", s.submitForm)
		})
		r.Post("/api/f/{shareURL}/submissions", s.submitJSON)
	})
	for pattern, h := range s.mounts {
		r.Mount(pattern, h)
	}
	return r
}

// Start listens on addr in the background.
func (s *Server) Start(addr string) {
	s.srv = &http.Server{Addr: addr, Handler: s.Routes(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Printf("[http] serving forms on %s", addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[http] server stopped: %v", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) showForm(w http.ResponseWriter, r *http.Request) {
	shareURL := chi.URLParam(r, "shareURL")
	form, err := s.forms.RecordVisit(shareURL)
	if err != nil {
		s.formError(w, err)
		return
	}
	fill, err := s.fillSession(form)
	if err != nil {
		s.formError(w, err)
		return
	}
	writePage(w, http.StatusOK, form, formNode(fill, shareURL))
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	shareURL := chi.URLParam(r, "shareURL")
	form, err := s.forms.GetFormByShareURL(shareURL)
	if err != nil {
		s.formError(w, err)
		return
	}
	fill, err := s.fillSession(form)
	if err != nil {
		s.formError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	rejected := false
	for _, inst := range fill.Elements() {
		if inst.Kind.IsLayout() {
			continue
		}
		if err := fill.Edit(inst.ID, r.PostFormValue(inst.ID)); err != nil {
			fill.Flag(inst.ID)
			rejected = true
		}
	}
	if rejected {
		writePage(w, http.StatusUnprocessableEntity, form, formNode(fill, shareURL))
		return
	}

	err = fill.Submit(r.Context(), s.forms.Submitter(shareURL))
	switch {
	case err == nil:
		writePage(w, http.StatusOK, form, fill.Render())
	case errors.Is(err, render.ErrInvalidValues):
		writePage(w, http.StatusUnprocessableEntity, form, formNode(fill, shareURL))
	default:
		s.formError(w, err)
	}
}

func (s *Server) submitJSON(w http.ResponseWriter, r *http.Request) {
	shareURL := chi.URLParam(r, "shareURL")
	var values domain.SubmissionValues
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sub, err := s.forms.SubmitValues(r.Context(), shareURL, values)
	var invalid *service.InvalidSubmissionError
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"id": sub.ID})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "invalid values", "invalid": invalid.Invalid})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, service.ErrFormNotPublished):
		writeError(w, http.StatusNotFound, "form not found")
	default:
		log.Printf("[http] submit %s: %v", shareURL, err)
		writeError(w, http.StatusInternalServerError, "submit failed")
	}
}

func (s *Server) fillSession(form *domain.Form) (*render.FillSession, error) {
	def, err := form.Definition()
	if err != nil {
		return nil, err
	}
	return s.pipeline.NewFillSession(def), nil
}

// formError maps lookup failures to 404 so unpublished drafts stay hidden.
func (s *Server) formError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, service.ErrFormNotPublished) {
		http.Error(w, "form not found", http.StatusNotFound)
		return
	}
	log.Printf("[http] %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// ── Rendering ──────────────────────────────────────────────

// formNode renders the fill session as a form posting back to its share URL.
func formNode(fill *render.FillSession, shareURL string) *html.Node {
	n := fill.Render()
	if n.Data == "form" {
		n.Attr = append(n.Attr,
			html.Attribute{Key: "method", Val: "post"},
			html.Attribute{Key: "action", Val: "/f/" + shareURL},
		)
	}
	return n
}

func writePage(w http.ResponseWriter, status int, form *domain.Form, body *html.Node) {
	page := view.El("html",
		view.El("head",
			view.El("meta", view.A("charset", "utf-8")),
			view.El("title", form.Name),
		),
		view.El("body", view.Class("fill-page"), body),
	)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte("<!DOCTYPE html>" + view.Render(page))); err != nil {
		log.Printf("[http] write page: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[http] writeJSON encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
