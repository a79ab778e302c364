package service_test

import (
	"testing"

	"formbuilder/internal/service"
	"formbuilder/internal/storage"
)

func TestWindowSettings(t *testing.T) {
	f := newFixture(t)
	ws := service.NewWindowSettingsService(storage.NewSettingsStore(f.db))

	got := ws.LoadWindowSize()
	if got.Width != service.DefaultWindowWidth || got.Height != service.DefaultWindowHeight {
		t.Fatalf("LoadWindowSize() = %+v, want defaults", got)
	}

	if err := ws.SaveWindowSize(1024, 700); err != nil {
		t.Fatal(err)
	}
	got = ws.LoadWindowSize()
	if got.Width != 1024 || got.Height != 700 {
		t.Fatalf("LoadWindowSize() = %+v, want 1024x700", got)
	}

	// Sizes below the minimum fall back to the defaults.
	if err := ws.SaveWindowSize(300, 200); err != nil {
		t.Fatal(err)
	}
	got = ws.LoadWindowSize()
	if got.Width != service.DefaultWindowWidth || got.Height != service.DefaultWindowHeight {
		t.Fatalf("LoadWindowSize() = %+v, want defaults", got)
	}

	if err := ws.SaveWindowSize(0, 10); err == nil {
		t.Fatal("SaveWindowSize(0, 10) succeeded")
	}
}
