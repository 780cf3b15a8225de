package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gemdale/reportkit/internal/api"
	"github.com/gemdale/reportkit/internal/config"
	"github.com/gemdale/reportkit/internal/llm"
	"github.com/gemdale/reportkit/internal/pipeline"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Set only fails on an invalid GOMAXPROCS, in which case the runtime default stands.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Info(fmt.Sprintf(format, args...))
	}))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stats := llm.NewStats(time.Hour)

	// Initialize pipeline.
	runner := pipeline.NewRunner(cfg, log, pipeline.WithStats(stats))
	orch := pipeline.NewOrchestrator(cfg, runner, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting reportkit", "port", cfg.Port, "work_root", cfg.WorkRoot, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
