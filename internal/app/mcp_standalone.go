package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"formbuilder/internal/config"
	mcpserver "formbuilder/internal/mcp"
)

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// Approvals are written to SQLite and answered by a running desktop app.
func ServeMCP() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	emitter := noopEmitter{}
	svc, err := newServices(cfg, emitter)
	if err != nil {
		log.Fatalf("Failed to start services: %v", err)
	}
	defer svc.close()

	deps := svc.mcpDeps(cfg, emitter)
	deps.Approvals = svc.approvals // Enable SQLite-based approval IPC
	mcpSrv := mcpserver.New(ctx, deps)

	log.Println("[MCP] Starting standalone stdio server...")
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
