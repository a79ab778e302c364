// Package config loads runtime settings from FORMBUILDER_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"

	"formbuilder/internal/designer"
)

type Config struct {
	// DataDir holds formbuilder.db. Defaults to ~/.local/share/formbuilder.
	DataDir string `env:"FORMBUILDER_DATA_DIR"`
	// TemplatesDir defaults to <DataDir>/templates.
	TemplatesDir string `env:"FORMBUILDER_TEMPLATES_DIR"`

	HTTPAddr  string `env:"FORMBUILDER_HTTP_ADDR,default=127.0.0.1:8377"`
	PublicURL string `env:"FORMBUILDER_PUBLIC_URL"`

	DragDistance   float64       `env:"FORMBUILDER_DRAG_DISTANCE,default=10"`
	TouchDelay     time.Duration `env:"FORMBUILDER_TOUCH_DELAY,default=300ms"`
	TouchTolerance float64       `env:"FORMBUILDER_TOUCH_TOLERANCE,default=5"`

	HistoryLimit  int    `env:"FORMBUILDER_HISTORY_LIMIT,default=40"`
	SecretBackend string `env:"FORMBUILDER_SECRET_BACKEND,default=keychain"`
}

// Load decodes the environment and fills derived defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".local", "share", "formbuilder")
	}
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = filepath.Join(cfg.DataDir, "templates")
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://" + cfg.HTTPAddr
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DragDistance < 0 || c.TouchTolerance < 0 || c.TouchDelay < 0 {
		return fmt.Errorf("drag thresholds must not be negative")
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history limit must be positive, got %d", c.HistoryLimit)
	}
	return nil
}

func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "formbuilder.db")
}

// Thresholds returns the drag activation settings for designer sessions.
func (c *Config) Thresholds() designer.Thresholds {
	return designer.Thresholds{
		ActivationDistance: c.DragDistance,
		TouchDelay:         c.TouchDelay,
		TouchTolerance:     c.TouchTolerance,
	}
}

// ShareLink is the public address of a published form.
func (c *Config) ShareLink(shareURL string) string {
	return c.PublicURL + "/f/" + shareURL
}
