package service

import (
	"fmt"
	"strconv"
)

// ─────────────────────────────────────────────────────────────
// Window Size Persistence
// ─────────────────────────────────────────────────────────────
//
// Saves and restores the main Wails window size between sessions.

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SettingsStore is the key-value persistence behind WindowSettingsService.
type SettingsStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// WindowSettingsService persists window size between sessions.
type WindowSettingsService struct {
	settings SettingsStore
}

func NewWindowSettingsService(settings SettingsStore) *WindowSettingsService {
	return &WindowSettingsService{settings: settings}
}

const (
	settingWindowWidth  = "window_width"
	settingWindowHeight = "window_height"
	DefaultWindowWidth  = 1440
	DefaultWindowHeight = 900
	minWindowWidth      = 800
	minWindowHeight     = 600
)

// LoadWindowSize returns the saved window dimensions, or the defaults when
// nothing usable is stored.
func (s *WindowSettingsService) LoadWindowSize() WindowSize {
	w := s.load(settingWindowWidth, DefaultWindowWidth)
	h := s.load(settingWindowHeight, DefaultWindowHeight)
	if w < minWindowWidth {
		w = DefaultWindowWidth
	}
	if h < minWindowHeight {
		h = DefaultWindowHeight
	}
	return WindowSize{Width: w, Height: h}
}

func (s *WindowSettingsService) load(key string, def int) int {
	v, ok, err := s.settings.Get(key)
	if err != nil || !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// SaveWindowSize persists the current window dimensions.
func (s *WindowSettingsService) SaveWindowSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("window settings: invalid size %dx%d", width, height)
	}
	if err := s.settings.Set(settingWindowWidth, strconv.Itoa(width)); err != nil {
		return err
	}
	return s.settings.Set(settingWindowHeight, strconv.Itoa(height))
}
