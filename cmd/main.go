package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fieldwise/dispatch/internal/adapters/http/api"
	"github.com/fieldwise/dispatch/internal/adapters/repository"
	"github.com/fieldwise/dispatch/internal/adapters/routing"
	"github.com/fieldwise/dispatch/internal/adapters/sqlite"
	"github.com/fieldwise/dispatch/internal/app"
	"github.com/fieldwise/dispatch/internal/config"
	"github.com/fieldwise/dispatch/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// The custom registry in pkg/metrics carries everything we scrape; the
	// default runtime collectors would only duplicate series.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(logger.WithJSON()); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		log.Error(ctx, "open database failed", logger.String("path", cfg.SQLitePath), logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	resolver := routing.NewHaversineResolver(routing.WithAverageSpeed(cfg.AvgSpeedKmh))
	svc := app.New(repository.NewMemStore(ctx), db, db, resolver,
		app.WithLogger(log),
		app.WithWorkerCount(cfg.AuditWorkerCount),
		app.WithQueueSize(cfg.AuditQueueSize),
		app.WithParallelism(cfg.Parallelism),
		app.WithConfigCacheTTL(time.Duration(cfg.ConfigCacheTTLMS)*time.Millisecond),
		app.WithMaxServiceRadius(cfg.MaxServiceRadiusMeters),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "start service failed", logger.Error(err))
		os.Exit(1)
	}

	mux := http.NewServeMux()
	api.NewServer(svc).Register(mux)

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
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}
