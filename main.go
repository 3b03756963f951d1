package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lighthouse_dashboard/internal/aggregation"
	"lighthouse_dashboard/internal/api"
	"lighthouse_dashboard/internal/app"
	"lighthouse_dashboard/internal/config"
	"lighthouse_dashboard/internal/metrics"
	"lighthouse_dashboard/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	app.SetupEnvironment()
	log.Debug().Msg("Starting application")

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sheetsClient := app.InitializeSheetsClient(ctx, cfg)
	snapshotCache, closeCache := app.InitializeCache(ctx, cfg, config.DefaultResilienceConfig)
	defer closeCache()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	telemetryMetrics := telemetry.New(registry)

	service := aggregation.NewService(sheetsClient, snapshotCache, aggregation.Options{
		TTL:        cfg.CacheTTL,
		SheetDelay: cfg.SheetRequestDelay,
		Parser:     metrics.NewParser(cfg.Location),
		Metrics:    telemetryMetrics,
	})

	if cfg.WarmInterval > 0 {
		go app.RunCacheWarmer(ctx, service, cfg.WarmInterval)
	}

	server := api.New(cfg.ListenAddr, service, telemetryMetrics, registry)
	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		stop()
		closeCache()
		os.Exit(1)
	}
}
