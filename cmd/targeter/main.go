package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/hazard-target-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hazard-target-service/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-target-service/internal/adapter/nws"
	"github.com/couchcryptid/hazard-target-service/internal/adapter/zipfile"
	"github.com/couchcryptid/hazard-target-service/internal/config"
	"github.com/couchcryptid/hazard-target-service/internal/domain"
	"github.com/couchcryptid/hazard-target-service/internal/observability"
	"github.com/couchcryptid/hazard-target-service/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	dir, report, err := zipfile.Load(cfg.ZipDirectoryPath)
	if err != nil {
		logger.Error("failed to load zip directory", "path", cfg.ZipDirectoryPath, "error", err)
		os.Exit(1)
	}
	logger.Info("zip directory loaded",
		"path", cfg.ZipDirectoryPath,
		"entries", dir.Len(),
		"unlocated", report.Unlocated,
		"excluded", len(report.Excluded),
	)

	client := nws.NewClient(cfg.NWSBaseURL, cfg.NWSUserAgent, cfg.NWSTimeout, logger)

	var (
		publisher pipeline.Publisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTargetTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(client, client, dir, publisher, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh loop.
	if cfg.RefreshEnabled {
		refresh := pipeline.RefreshConfig{
			MinSeverity: cfg.RefreshMinSeverity,
			Interval:    cfg.RefreshInterval,
		}
		for _, name := range cfg.RefreshModes {
			if mode, ok := domain.LookupMode(name); ok {
				refresh.Modes = append(refresh.Modes, mode)
			}
		}
		p.EnableRefresh()
		go func() {
			if err := p.Run(ctx, refresh); err != nil {
				logger.Error("refresh loop error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
