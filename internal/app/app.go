package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mark3labs/mcp-go/server"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"formbuilder/internal/config"
	"formbuilder/internal/fields"
	"formbuilder/internal/httpserver"
	mcpserver "formbuilder/internal/mcp"
	"formbuilder/internal/render"
	"formbuilder/internal/secret"
	"formbuilder/internal/service"
	"formbuilder/internal/storage"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context
	cfg *config.Config

	*services
	mcp     *mcpserver.Server
	http    *httpserver.Server
	watcher *formWatcher
	window  *service.WindowSettingsService
}

// services is everything built on top of the database, shared by the
// desktop app and the standalone MCP server.
type services struct {
	db        *storage.DB
	registry  *fields.Registry
	pipeline  *render.Pipeline
	secrets   secret.SecretStore
	approvals *storage.ApprovalStore
	forms     *service.FormService
	designer  *service.DesignerService
	templates *service.TemplateService
	exports   *service.ExportService
}

func newServices(cfg *config.Config, emitter service.EventEmitter) (*services, error) {
	db, err := storage.New(cfg.DBPath(), cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	secrets, err := secret.New(cfg.SecretBackend)
	if err != nil {
		db.Close()
		return nil, err
	}

	registry := fields.NewRegistry()
	subs := storage.NewSubmissionStore(db)
	forms := service.NewFormService(storage.NewFormStore(db), subs, registry, emitter)
	s := &services{
		db:        db,
		registry:  registry,
		pipeline:  render.New(registry),
		secrets:   secrets,
		approvals: storage.NewApprovalStore(db),
		forms:     forms,
		designer:  service.NewDesignerService(forms, storage.NewHistoryStore(db, cfg.HistoryLimit), registry, emitter, cfg.Thresholds()),
		templates: service.NewTemplateService(cfg.TemplatesDir, forms, emitter),
		exports:   service.NewExportService(storage.NewExportDestinationStore(db), subs, forms, secrets, emitter),
	}
	if err := s.templates.Reload(); err != nil {
		log.Printf("[templates] initial load failed: %v", err)
	}
	return s, nil
}

func (s *services) mcpDeps(cfg *config.Config, emitter mcpserver.EventEmitter) mcpserver.Deps {
	return mcpserver.Deps{
		Emitter:   emitter,
		Registry:  s.registry,
		Forms:     s.forms,
		Designer:  s.designer,
		Templates: s.templates,
		Exports:   s.exports,
		ShareLink: cfg.ShareLink,
	}
}

// close stops background work and closes the database.
func (s *services) close() {
	s.templates.Stop()
	s.exports.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.exports.WaitRunning(ctx)
	s.db.Close()
}

// New creates a new App.
func New() *App {
	return &App{}
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	cfg, err := config.Load()
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to load config: %v", err)
		return
	}
	a.cfg = cfg

	emitter := wailsEmitter{ctx: ctx}
	svc, err := newServices(cfg, emitter)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to start services: %v", err)
		return
	}
	a.services = svc

	a.window = service.NewWindowSettingsService(storage.NewSettingsStore(svc.db))
	size := a.window.LoadWindowSize()
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)

	if err := a.templates.Watch(ctx); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to watch templates: %v", err)
	}
	a.exports.RestartSchedules(ctx)

	// In-process MCP answers approvals through frontend events; agents reach
	// it over streamable HTTP next to the published forms.
	a.mcp = mcpserver.New(ctx, svc.mcpDeps(cfg, emitter))
	a.http = httpserver.New(a.forms, a.pipeline)
	a.http.Mount("/mcp", server.NewStreamableHTTPServer(a.mcp.MCP()))
	a.http.Start(cfg.HTTPAddr)

	// Picks up edits and approval requests from a standalone MCP process.
	a.watcher = newFormWatcher(ctx, a)
	a.watcher.Start()
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.window != nil {
		w, h := wailsRuntime.WindowGetSize(ctx)
		if err := a.window.SaveWindowSize(w, h); err != nil {
			log.Printf("[window] save size: %v", err)
		}
	}
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.http != nil {
		if err := a.http.Shutdown(ctx); err != nil {
			log.Printf("[http] shutdown: %v", err)
		}
	}
	if a.services != nil {
		a.services.close()
	}
}

// ServerInfo tells the frontend where forms and the MCP endpoint are served.
func (a *App) ServerInfo() map[string]string {
	return map[string]string{
		"publicUrl": a.cfg.PublicURL,
		"mcpUrl":    a.cfg.PublicURL + "/mcp",
	}
}
