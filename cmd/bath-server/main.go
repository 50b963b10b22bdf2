// Package main is the entry point for the comfort bath session server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/ComfortBath/server/internal/events"
	"github.com/MRamiBalles/ComfortBath/server/internal/infra/storage"
	"github.com/MRamiBalles/ComfortBath/server/internal/network"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/config"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/logger"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/metrics"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/optimization"
)

const (
	shutdownTimeout = 10 * time.Second
	tuningInterval  = 30 * time.Second
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logger.NewLogger().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	appLogger := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel))
	appLogger.Info("starting comfort bath server", "profile", cfg.Profile, "addr", cfg.ListenAddr)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("server stopped")
}

func run(cfg *config.Config, appLogger *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.Get()
	tuning := cfg.Tuning

	repo, closeRepo, err := openRepository(cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeRepo()

	journal := events.NewEventLog(storage.NewJournalPersister(repo, collector), tuning.EventChannelBuffer)
	journal.OnPersistError(func(ev events.GameEvent, err error) {
		if errors.Is(err, events.ErrQueueFull) || errors.Is(err, events.ErrLogClosed) {
			collector.RecordEventDropped()
		}
		appLogger.Warn("journal entry not persisted", "run", ev.RunID, "type", ev.Type, "error", err)
	})

	hub := network.NewHub(appLogger, collector, tuning.MaxClients)
	sessions := network.NewServer(hub, journal, appLogger, collector, network.SessionConfig{
		TickHz:              tuning.TickHz,
		SnapshotHz:          tuning.SnapshotHz,
		SendBuffer:          tuning.ClientSendBuffer,
		ActionBuffer:        tuning.ClientActionBuffer,
		MaxActionsPerSecond: tuning.MaxActionsPerSecond,
		Seed:                cfg.Seed,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", sessions.ServeWs)
	mux.HandleFunc("GET /metrics", collector.Handler())
	mux.HandleFunc("GET /metrics/prometheus", collector.PrometheusHandler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	network.NewJournalHandler(repo, appLogger).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return journal.Run(gctx)
	})
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		appLogger.Info("HTTP API and websocket server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		journal.Close()
		return err
	})
	g.Go(func() error {
		watchTuning(gctx, collector, tuning, appLogger)
		return nil
	})

	return g.Wait()
}

// openRepository picks the journal backend. An empty sqlite path keeps the journal in memory.
func openRepository(cfg *config.Config, appLogger *logger.Logger) (storage.EventRepository, func(), error) {
	if cfg.SQLitePath == "" {
		appLogger.Warn("no sqlite path configured, journal kept in memory")
		return storage.NewMemoryEventRepository(), func() {}, nil
	}

	appLogger.Info("initializing sqlite journal", "path", cfg.SQLitePath)
	db, err := storage.InitSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	db.SetMaxOpenConns(cfg.Tuning.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.Tuning.DBMaxIdleConns)
	return storage.NewSQLiteEventRepository(db), func() { db.Close() }, nil
}

// watchTuning logs tuning recommendations derived from live metrics.
func watchTuning(ctx context.Context, collector *metrics.Collector, tuning *optimization.Config, appLogger *logger.Logger) {
	ticker := time.NewTicker(tuningInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rec := optimization.Analyze(collector.Snapshot(), tuning)
			if rec.Empty() {
				continue
			}
			for _, note := range rec.Notes {
				appLogger.Warn("tuning recommendation", "note", note)
			}
		}
	}
}
