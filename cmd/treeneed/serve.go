package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	httpadapter "github.com/couchcryptid/treecover-lookup-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/treecover-lookup-service/internal/adapter/kafka"
	"github.com/couchcryptid/treecover-lookup-service/internal/lookup"
	"github.com/couchcryptid/treecover-lookup-service/internal/observability"
	"github.com/couchcryptid/treecover-lookup-service/internal/pipeline"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP lookup service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd)
		},
	}
}

func serve(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg)
	metrics := processMetrics()

	opts := []lookup.Option{lookup.WithNormalizeCache(cfg.NormalizeCacheSize)}

	// Kafka is feature-flagged via KAFKA_ENABLED.
	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, lookup.WithPublisher(writer))
		logger.Info("kafka enabled",
			"brokers", cfg.KafkaBrokers,
			"notify_topic", cfg.KafkaNotifyTopic,
			"snapshot_topic", cfg.KafkaSnapshotTopic,
		)
	} else {
		logger.Info("kafka disabled")
	}

	svc := lookup.NewService(newSource(cfg, logger), logger, metrics, opts...)
	reloader := pipeline.NewReloader(svc, logger, metrics, cfg.ReloadMinInterval)

	var scheduler *pipeline.Scheduler
	if cfg.ReloadSchedule != "" {
		scheduler, err = pipeline.NewScheduler(cfg.ReloadSchedule, reloader, logger)
		if err != nil {
			return err
		}
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, reloader, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start the reloader; it performs the initial load.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := reloader.Run(ctx); err != nil {
			logger.Error("reloader error", "error", err)
		}
	}()

	if reader != nil {
		watcher := pipeline.NewNoticeWatcher(reader, reloader, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil {
				logger.Error("notice watcher error", "error", err)
			}
		}()
	}

	if scheduler != nil {
		scheduler.Start()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	wg.Wait()
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}
