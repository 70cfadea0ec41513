// Package factory selects the SpendWise API implementation from config.
package factory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/backend"
	"spendwise/internal/backend/memory"
	"spendwise/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type    backend.Type
	BaseURL string
	Timeout time.Duration
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	t := backend.Type(appConfig.APIBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.APIBackend)
	}
	return Config{Type: t, BaseURL: appConfig.APIBaseURL, Timeout: appConfig.APITimeout}, nil
}

// DefaultFactory builds backends and logs what it built.
type DefaultFactory struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (backend.Backend, error) {
	switch cfg.Type {
	case backend.HTTPBackend:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("base URL is required for %s backend", cfg.Type)
		}
		f.logger.InfoContext(ctx, "Initialized HTTP backend",
			"base_url", cfg.BaseURL,
			"timeout", cfg.Timeout.String())
		return backend.NewClient(cfg.BaseURL, cfg.Timeout), nil
	case backend.MemoryBackend:
		f.logger.InfoContext(ctx, "Initialized memory backend")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
