package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/auth"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/middleware/metrics"
	"fintrack/internal/services"
	"fintrack/internal/taxonomy"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)
	cfg = cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	factory := backend.NewFactory(logger)

	stores, err := factory.CreateStore(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Error("Failed to close store", log.FieldError, err)
		}
	}()

	bus, err := factory.CreateBus(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logger.Error("Failed to close event bus", log.FieldError, err)
		}
	}()

	tax, err := taxonomy.Load(cfg.CategoriesFile)
	if err != nil {
		return err
	}

	m := metrics.New()
	gate := auth.NewGate(stores.Store, auth.NewTokens(cfg.SessionSecret, cfg.SessionTTL), logger)
	txs := services.NewTransactionService(stores.Store, bus.Publisher, logger).WithRecorder(m)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:              stores.Store,
		Gate:               gate,
		Transactions:       txs,
		Taxonomy:           tax,
		Metrics:            m,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			"events", cfg.EventsBackend,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
