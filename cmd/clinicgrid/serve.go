package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"clinicgrid/internal/api"
	"clinicgrid/internal/archive"
	"clinicgrid/internal/config"
	"clinicgrid/internal/db"
	"clinicgrid/internal/events"
	"clinicgrid/internal/metrics"
)

const clinicReloadInterval = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the schedule API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(cmd.Context(), cfg, &logger)
		},
	}
}

func serve(parent context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer database.Close()

	bus := events.NewBus()
	bus.Subscribe(events.ScheduleChanged, func(ev events.Event) {
		logger.Debug().Strs("dates", ev.Dates).Str("source", ev.Source).Msg("schedule changed")
	})
	bus.Subscribe(events.CatalogChanged, func(ev events.Event) {
		logger.Debug().Str("source", ev.Source).Msg("catalog changed")
	})

	watcher, err := config.NewClinicWatcher(cfg.ClinicConfigPath, clinicReloadInterval, logger)
	if err != nil {
		return fmt.Errorf("load clinic config: %w", err)
	}
	watcher.Subscribe(func(clinic *config.ClinicConfig) {
		syncCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := database.SyncClinicConfig(syncCtx, clinic); err != nil {
			logger.Error().Err(err).Msg("clinic config sync failed")
			return
		}
		bus.Publish(events.Event{Type: events.CatalogChanged, Source: "config"})
	})
	go watcher.Run(ctx)

	if cfg.Backup.Enabled {
		interval := time.Duration(cfg.Backup.IntervalHours) * time.Hour
		if interval <= 0 {
			interval = 24 * time.Hour
		}
		loop := db.NewBackupLoop(database, cfg.Backup.Path, interval, cfg.Backup.RetentionDays, logger)
		go loop.Run(ctx)
	}

	if cfg.Archive.Enabled {
		archiver := archive.NewService(archive.Config{
			Dir:           cfg.Archive.Path,
			RetentionDays: cfg.Archive.RetentionDays,
			ExportOnStart: cfg.Archive.ExportOnStart,
		}, database, database, logger)
		archiver.Start()
		defer archiver.Stop()
	}

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, database, logger)
	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	server := api.NewHTTPServer(cfg, database, bus, watcher.Current, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func startHealthServer(ctx context.Context, port int, database *db.DB, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := database.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	listenUntilDone(ctx, fmt.Sprintf(":%d", port), mux, "health", logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	listenUntilDone(ctx, fmt.Sprintf(":%d", port), mux, "metrics", logger)
}

func listenUntilDone(ctx context.Context, addr string, h http.Handler, name string, logger *zerolog.Logger) {
	srv := &http.Server{Addr: addr, Handler: h}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Str("server", name).Msg("server error")
	}
}
