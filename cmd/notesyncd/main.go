package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/notablehq/notesync/internal/adapter"
	"github.com/notablehq/notesync/internal/config"
	"github.com/notablehq/notesync/internal/logger"
	"github.com/notablehq/notesync/internal/netmon"
	"github.com/notablehq/notesync/internal/notes"
	"github.com/notablehq/notesync/internal/service"
	"github.com/notablehq/notesync/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("notesyncd")
	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storages, err := store.NewStorages(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}

	notesDir := cfg.Storage.NotesDir
	if notesDir == "" {
		notesDir = filepath.Join(filepath.Dir(cfg.Storage.DBPath), "notes")
	}
	docs, err := notes.NewFileStore(notesDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create notes store")
	}

	transport := adapter.NewHTTPTransport(adapter.HTTPTransportConfig{
		BaseURL: cfg.Server.URL,
		APIKey:  cfg.Server.APIKey,
		Timeout: cfg.Server.RequestTimeout,
	})

	probe := netmon.NewProbe(netmon.ProbeConfig{
		BaseURL:  cfg.Server.URL,
		Interval: cfg.Engine.ProbeInterval,
	}, log)

	services, err := service.NewServices(ctx, cfg, storages, transport, probe, docs, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create sync services")
	}

	if cfg.Engine.Enabled {
		probe.Start(ctx)
	}
	if err = services.Engine.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("initialize sync engine")
	}

	log.Info().
		Str("device_id", services.DeviceID).
		Str("server", cfg.Server.URL).
		Bool("enabled", cfg.Engine.Enabled).
		Msg("notesyncd running")

	<-ctx.Done()

	log.Info().Msg("shutdown signal received")
	probe.Stop()
	services.Engine.Shutdown()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
