// Package cli provides the process bootstrap shared by cmd/spendwise:
// env loading, logger setup, session store selection and signal handling.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendwise/internal/config"
	applog "spendwise/internal/log"
	"spendwise/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger from LOG_LEVEL and LOG_FORMAT
// and installs it as the slog default.
func SetupLogger(cfg *config.Config) *applog.Logger {
	level, err := config.ParseLevel(cfg.LogLevel)
	lc := applog.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.LogFormat
	logger := applog.New(lc)
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", applog.FieldError, err)
	}
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// OpenSessionStore returns the store selected by SESSION_BACKEND. Without
// SESSION_KEY the sqlite store encrypts with a fresh key, so sessions do not
// survive a restart.
func OpenSessionStore(cfg *config.Config, logger *applog.Logger) (storage.SessionStore, error) {
	logger = logger.WithComponent(applog.ComponentStorage)
	switch cfg.SessionBackend {
	case "sqlite":
		if cfg.SessionKey == "" {
			logger.Warn("SESSION_KEY not set, sessions are encrypted with an ephemeral key")
		}
		sealer, err := storage.NewSealer(cfg.SessionKey)
		if err != nil {
			return nil, fmt.Errorf("session key: %w", err)
		}
		store, err := storage.NewSQLiteStore(cfg.SessionDBPath, sealer)
		if err != nil {
			return nil, fmt.Errorf("open session database %s: %w", cfg.SessionDBPath, err)
		}
		logger.Info("Using sqlite session store", "path", cfg.SessionDBPath)
		return store, nil
	default:
		logger.Info("Using in-memory session store")
		return storage.NewMemoryStore(), nil
	}
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs with a context bounded by timeout; done closes once it returns.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}
