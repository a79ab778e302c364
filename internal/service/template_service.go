package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"formbuilder/internal/domain"
	"formbuilder/internal/fields"
)

var ErrTemplateNotFound = errors.New("template not found")

// Template is a reusable field list stored as <slug>.json in the templates
// directory.
type Template struct {
	Slug        string                `json:"slug"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Fields      domain.FormDefinition `json:"fields"`
}

type templateFile struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Fields      json.RawMessage `json:"fields"`
}

// ─────────────────────────────────────────────────────────────
// Template Service — form templates from a watched folder
// ─────────────────────────────────────────────────────────────

// TemplateService keeps the templates directory loaded and reloads it when
// files change on disk.
type TemplateService struct {
	dir     string
	forms   *FormService
	emitter EventEmitter

	mu        sync.RWMutex
	templates map[string]Template

	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
}

func NewTemplateService(dir string, forms *FormService, emitter EventEmitter) *TemplateService {
	return &TemplateService{
		dir:       dir,
		forms:     forms,
		emitter:   emitterOrNop(emitter),
		templates: make(map[string]Template),
	}
}

// Reload reads every *.json file of the directory. Files that fail to decode
// or whose attributes break their schema are skipped.
func (s *TemplateService) Reload() error {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		entries = nil
	} else if err != nil {
		return fmt.Errorf("read templates dir: %w", err)
	}

	loaded := make(map[string]Template)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		t, err := readTemplate(filepath.Join(s.dir, e.Name()))
		if err != nil {
			log.Printf("[templates] skipping %s: %v", e.Name(), err)
			continue
		}
		loaded[t.Slug] = t
	}

	s.mu.Lock()
	s.templates = loaded
	s.mu.Unlock()
	return nil
}

func readTemplate(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, err
	}
	var f templateFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Template{}, fmt.Errorf("decode: %w", err)
	}
	def, err := domain.UnmarshalDefinition(string(f.Fields))
	if err != nil {
		return Template{}, err
	}
	for i, inst := range def {
		if err := fields.ValidateAttributes(inst.Attributes); err != nil {
			return Template{}, fmt.Errorf("field %s: %w", inst.ID, err)
		}
		def[i].Attributes = fields.NormalizeAttributes(inst.Attributes)
	}
	slug := strings.TrimSuffix(filepath.Base(path), ".json")
	name := f.Name
	if name == "" {
		name = slug
	}
	return Template{Slug: slug, Name: name, Description: f.Description, Fields: def}, nil
}

// List returns the loaded templates sorted by name.
func (s *TemplateService) List() []Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *TemplateService) Get(slug string) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[slug]
	if !ok {
		return Template{}, fmt.Errorf("%s: %w", slug, ErrTemplateNotFound)
	}
	t.Fields = t.Fields.Clone()
	return t, nil
}

// CreateFromTemplate creates a draft form holding the template's fields.
func (s *TemplateService) CreateFromTemplate(ctx context.Context, slug, name, description string) (*domain.Form, error) {
	t, err := s.Get(slug)
	if err != nil {
		return nil, err
	}
	return s.forms.createForm(ctx, name, description, slug, t.Fields)
}

// SaveAsTemplate writes a form's current fields as <slug>.json.
func (s *TemplateService) SaveAsTemplate(formID, slug string) (Template, error) {
	if slug == "" || strings.ContainsAny(slug, `/\.`) {
		return Template{}, fmt.Errorf("invalid template slug %q", slug)
	}
	f, err := s.forms.GetForm(formID)
	if err != nil {
		return Template{}, err
	}
	def, err := f.Definition()
	if err != nil {
		return Template{}, err
	}
	data, err := json.MarshalIndent(struct {
		Name        string                `json:"name"`
		Description string                `json:"description"`
		Fields      domain.FormDefinition `json:"fields"`
	}{f.Name, f.Description, def}, "", "  ")
	if err != nil {
		return Template{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Template{}, fmt.Errorf("create templates dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, slug+".json"), data, 0o644); err != nil {
		return Template{}, fmt.Errorf("write template: %w", err)
	}
	t := Template{Slug: slug, Name: f.Name, Description: f.Description, Fields: def}
	s.mu.Lock()
	s.templates[slug] = t
	s.mu.Unlock()
	return t, nil
}

// ── Watcher ────────────────────────────────────────────────

// Watch reloads the templates 500ms after the last change in the directory.
func (s *TemplateService) Watch(ctx context.Context) error {
	s.Stop()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create templates dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	s.watcher = watcher

	watchCtx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel

	go func() {
		var timer *time.Timer
		for {
			select {
			case <-watchCtx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".json" {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(500*time.Millisecond, func() {
					if err := s.Reload(); err != nil {
						log.Printf("[templates] reload failed: %v", err)
						return
					}
					s.emitter.Emit(ctx, EventTemplatesChanged, s.List())
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[templates] watcher error: %v", err)
			}
		}
	}()

	log.Printf("[templates] watching %s", s.dir)
	return nil
}

func (s *TemplateService) Stop() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
}
