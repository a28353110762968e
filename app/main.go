package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-harvest/app/api"
	"github.com/lysyi3m/rss-harvest/app/cfg"
	"github.com/lysyi3m/rss-harvest/app/database"
	"github.com/lysyi3m/rss-harvest/app/fetcher"
	"github.com/lysyi3m/rss-harvest/app/pipeline"
	"github.com/lysyi3m/rss-harvest/app/runenv"
	"github.com/lysyi3m/rss-harvest/app/snapshot"
	"github.com/lysyi3m/rss-harvest/app/source"
	"github.com/lysyi3m/rss-harvest/app/state"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := cfg.Load()
	if err != nil {
		return err
	}
	if config == nil {
		// Help was shown
		return nil
	}

	setupLogger(config.Debug)

	slog.Info("Starting rss-harvest",
		"version", config.Version,
		"mode", config.Mode,
		"state_backend", config.StateBackend,
		"output_dir", config.OutputDir)

	if config.Mode == cfg.ModeVerify {
		return verify(config)
	}

	states, runs, closeStore, err := openStateStore(config)
	if err != nil {
		return err
	}
	defer closeStore()

	client := fetcher.NewClient(fetcher.Config{
		UserAgent: config.UserAgent,
		MaxRPS:    config.MaxRPS,
	})

	output := snapshot.NewFileStore(config.OutputDir)

	var recorder pipeline.RunRecorder
	if runs != nil {
		recorder = runs
	}

	p := pipeline.New(pipeline.Config{
		SeedsFile:    config.SeedsFile,
		OPMLDir:      config.OPMLDir,
		SourcesFile:  config.SourcesFile,
		SettingsFile: config.SettingsFile,
		Options: runenv.Options{
			Shards:           config.Shards,
			Workers:          config.Workers,
			MaxItems:         config.MaxItems,
			DiscoveryTimeout: config.DiscoveryTimeout,
			FetchTimeout:     config.FetchTimeout,
			EnrichLimit:      config.EnrichLimit,
			URLPrefix:        config.URLPrefix,
		},
	}, client, states, output, recorder)

	if config.Mode == cfg.ModeServe {
		return serve(config, p, output, runs)
	}

	_, err = p.Run(context.Background())
	return err
}

// verify checks every seed homepage for an advertised feed and exits.
func verify(config *cfg.Cfg) error {
	seeds, err := source.LoadFile(config.SeedsFile)
	if err != nil {
		return fmt.Errorf("failed to load seeds: %w", err)
	}
	if len(seeds) == 0 {
		slog.Warn("No seeds to verify", "file", config.SeedsFile)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fetcher.NewClient(fetcher.Config{
		UserAgent: config.UserAgent,
		MaxRPS:    config.MaxRPS,
	})

	source.Verify(ctx, client, seeds, config.VerifyTimeout, config.Workers)
	return nil
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// openStateStore returns the fetch state store for the configured backend.
// Run history is only kept by the sqlite backend.
func openStateStore(config *cfg.Cfg) (state.Store, *database.RunRepository, func(), error) {
	switch config.StateBackend {
	case cfg.BackendBolt:
		store, err := state.OpenBoltStore(config.BoltFile)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, func() { store.Close() }, nil

	case cfg.BackendSQLite:
		db, err := database.NewConnection(config.DBFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		schema, err := database.RunMigrations(db)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		slog.Info("Database ready", "path", config.DBFile, "schema_version", schema.Version, "migrated", schema.Applied)

		return database.NewFeedStateRepository(db), database.NewRunRepository(db), func() { db.Close() }, nil

	default:
		store := state.NewFileStore(config.StateFile)
		return store, nil, func() { store.Close() }, nil
	}
}

func serve(config *cfg.Cfg, p *pipeline.Pipeline, output snapshot.Store, runs *database.RunRepository) error {
	runner := pipeline.NewRunner(p, time.Duration(config.Interval)*time.Second)

	var history api.RunHistoryInterface
	if runs != nil {
		history = runs
	}

	handler := api.NewHandler(output, p, runner, history, config.Version)
	server := api.NewServer(handler, config.URLPrefix, config.APIKey)

	httpServer := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	runner.Start()

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server started", "port", config.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case serveErr = <-serverErrChan:
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	runner.Stop()

	slog.Info("Shutdown complete")

	return serveErr
}
