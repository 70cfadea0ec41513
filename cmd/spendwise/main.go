package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/amqp"
	"spendwise/internal/backend/factory"
	"spendwise/internal/cache"
	"spendwise/internal/cli"
	"spendwise/internal/events"
	apphttp "spendwise/internal/http"
	applog "spendwise/internal/log"
	"spendwise/internal/view"
	"spendwise/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	logger.Info("Starting spendwise", applog.FieldOperation, applog.OpStartup,
		"port", cfg.Port,
		"api_backend", cfg.APIBackend)

	backendCfg, err := factory.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	api, err := factory.New(logger.Logger.With(applog.FieldComponent, applog.ComponentBackend)).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.APIBackend)
		os.Exit(1)
	}

	sessions, err := cli.OpenSessionStore(cfg, logger)
	if err != nil {
		logger.Error("Failed to open session store", applog.FieldError, err)
		os.Exit(1)
	}
	defer sessions.Close()

	pages := cache.NewLRUCache[*view.Page](cfg.StateCacheSize, cfg.StateCacheTTL)
	stateWorker := worker.NewStateWorker(pages, sessions, logger)
	stateWorker.StartupCheck(context.Background())

	cacheManager := cache.NewManager(logger.Logger.With(applog.FieldComponent, applog.ComponentCache))
	cacheManager.Register("pages", pages)
	cacheManager.Register("sessions", stateWorker.SessionCleaner())
	cacheManager.StartCleanup(5 * time.Minute)

	var (
		publisher  events.Publisher = events.Noop{}
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("AMQP events enabled", "exchange", cfg.AMQPExchange, "replica", amqpClient.Replica())
	} else {
		logger.Info("AMQP disabled - page state is not shared across replicas")
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		Backend:        api,
		Sessions:       sessions,
		Pages:          pages,
		Publisher:      publisher,
		Logger:         logger,
		SessionCookie:  cfg.SessionCookie,
		SessionTTL:     cfg.SessionTTL,
		RateLimit:      cfg.RateLimitPerMinute,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		logger.Error("Failed to build server", applog.FieldError, err)
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if amqpClient != nil {
		g.Go(func() error {
			return stateWorker.Run(gctx, amqpClient)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, applog.FieldOperation, applog.OpShutdown)
		os.Exit(1)
	}
	<-done
	logger.Info("Server stopped gracefully")
}
