package daemon

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/api"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/app/engine"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/app/scheduler"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/sqlite"
)

// NewLogger builds the process logger from config.
func NewLogger(cfg LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if cfg.Pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}

// Run boots the node and blocks until the context is canceled or a shutdown
// signal arrives.
func Run(ctx context.Context, cfg Config) error {
	log := NewLogger(cfg.Log)

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o700); err != nil {
		return err
	}
	db, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Str("path", cfg.Storage.Path).Msg("store opened")

	eng := engine.New(db, cfg.EngineConfig(), log)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(eng, cfg.Scheduler.Schedule, log)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	server := api.NewServer(eng, log)
	if cfg.API.Metrics {
		server.EnableMetrics()
	}
	httpServer := &http.Server{
		Addr:              cfg.API.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.API.Addr()).Msg("api listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
