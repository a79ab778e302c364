package service

import (
	"context"
	"sync"
)

// Events emitted by the services. Payloads are the affected record.
const (
	EventFormCreated      = "form:created"
	EventFormSaved        = "form:saved"
	EventFormPublished    = "form:published"
	EventFormSubmitted    = "form:submitted"
	EventFormDeleted      = "form:deleted"
	EventDesignerChanged  = "designer:changed"
	EventDesignerHistory  = "designer:history"
	EventExportStarted    = "export:started"
	EventExportCompleted  = "export:completed"
	EventExportFailed     = "export:failed"
	EventTemplatesChanged = "templates:changed"
)

// EventEmitter pushes service events to the frontend. The App implements it
// on top of wailsRuntime.EventsEmit; tests use MockEmitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// MockEmitter records every emission. Safe for use from cron and watcher
// goroutines.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded emissions of one event.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// nopEmitter drops events when no emitter is wired.
type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, any) {}

func emitterOrNop(e EventEmitter) EventEmitter {
	if e == nil {
		return nopEmitter{}
	}
	return e
}
