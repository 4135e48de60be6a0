package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sweetshooter/study-progress-tracker/internal/adapters/gateway"
	"github.com/sweetshooter/study-progress-tracker/internal/adapters/gateway/postgres"
	"github.com/sweetshooter/study-progress-tracker/internal/adapters/http/api"
	app "github.com/sweetshooter/study-progress-tracker/internal/app"
	"github.com/sweetshooter/study-progress-tracker/internal/config"
	"github.com/sweetshooter/study-progress-tracker/internal/domain/catalog"
	"github.com/sweetshooter/study-progress-tracker/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Local development convenience; a missing .env file is not an error.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to open remote store", logger.String("driver", cfg.StoreDriver), logger.Error(err))
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn(ctx, "failed to close remote store", logger.Error(err))
		}
	}()

	cat := catalog.Default()
	if len(cfg.Subjects) > 0 {
		cat, err = catalog.New(cfg.Subjects)
		if err != nil {
			log.Error(ctx, "invalid subject catalog", logger.Error(err))
			return
		}
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithGateway(store),
		app.WithCatalog(cat),
		app.WithWriteQueueSize(cfg.WriteQueueSize),
	)
	if err := svc.Start(ctx); err != nil {
		// The roster fetch is retried on the next refresh; an unreachable
		// store at boot should not keep the process down.
		if !errors.Is(err, app.ErrRemoteRead) {
			log.Error(ctx, "failed to start service", logger.Error(err))
			return
		}
		log.Warn(ctx, "initial roster fetch failed; starting with an empty roster", logger.Error(err))
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// openStore selects the remote store backend from configuration.
func openStore(ctx context.Context, cfg *config.Config) (gateway.Gateway, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.StoreDSN)
	default:
		return gateway.NewMemory(), nil
	}
}

// startServiceMetricsUpdater refreshes roster and queue gauges in the
// background so scrapes stay current between API calls.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}
