package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/genflow/internal/application/graph"
	"github.com/aescanero/genflow/internal/application/nodes"
	"github.com/aescanero/genflow/internal/application/orchestrator"
	"github.com/aescanero/genflow/internal/application/settings"
	"github.com/aescanero/genflow/internal/application/workers"
	"github.com/aescanero/genflow/internal/config"
	"github.com/aescanero/genflow/pkg/adapters/events/memory"
	"github.com/aescanero/genflow/pkg/adapters/events/redis"
	prommetrics "github.com/aescanero/genflow/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/genflow/pkg/api/grpc"
	"github.com/aescanero/genflow/pkg/api/http"
	"github.com/aescanero/genflow/pkg/api/websocket"
	"github.com/aescanero/genflow/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP, WebSocket and gRPC health servers",
	Long: `Starts the graph engine. Configuration comes from the environment
(GENFLOW_HTTP_PORT, POLLINATIONS_API_KEY, EVENTS_BACKEND, ...).

SIGINT or SIGTERM drains the servers and the worker pool within TIMEOUT_SHUTDOWN.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting genflow",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := connectRedis(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("Redis close error", zap.Error(err))
			}
		}()
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsCollector := prommetrics.NewCollector(registry)

	// Adapters
	var eventBus ports.EventBus
	if cfg.EventsBackend == config.BackendRedis {
		group := cfg.Redis.ConsumerGroup
		if group == "" {
			// Every instance needs its own group to see every event.
			host, _ := os.Hostname()
			group = fmt.Sprintf("genflow-%s-%d", host, os.Getpid())
		}
		eventBus, err = redis.NewStreamsEventBus(redisClient, group, fmt.Sprintf("genflow-%d", os.Getpid()), cfg.Redis.StreamMaxLen, logger)
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
	} else {
		eventBus = memory.NewInMemoryEventBus(logger)
	}
	defer func() { _ = eventBus.Close() }()

	client, err := newGenerationClient(cfg, metricsCollector, logger)
	if err != nil {
		return fmt.Errorf("failed to create generation client: %w", err)
	}

	settingsSvc := settings.NewService(newCredentialStore(cfg, redisClient, logger), client, client, logger)
	if err := settingsSvc.Load(ctx); err != nil {
		logger.Warn("failed to load stored API key", zap.Error(err))
	}

	// Application components
	nodeRegistry := nodes.NewRegistry(client, logger)
	store := graph.NewStore(logger, graph.WithReactive(nodeRegistry.Reactive))

	workerPool := workers.NewPool(
		cfg.Workers.PoolSize,
		cfg.Workers.QueueSize,
		metricsCollector,
		logger,
		cfg.Workers.HealthCheckInterval,
	)
	if err := workerPool.Start(); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	manager := orchestrator.NewManager(
		store,
		nodeRegistry,
		workerPool,
		eventBus,
		metricsCollector,
		logger,
		cfg.Timeouts.NodeExecutionTimeout,
	)

	// API servers
	httpServer := http.NewServer(&http.Config{
		Port:         cfg.HTTPPort,
		Store:        store,
		Orchestrator: manager,
		Settings:     settingsSvc,
		Health:       workerPool.Health(),
		Gatherer:     registry,
		Logger:       logger,
	})
	httpServer.SetupWebSocket(websocket.NewHandler(eventBus, store.Snapshot, logger))

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:   cfg.GRPCPort,
		Health: workerPool.Health(),
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create gRPC server: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(httpServer.Start)
	g.Go(grpcServer.Start)
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := grpcServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := manager.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := workerPool.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	logger.Info("genflow started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("worker_pool_size", cfg.Workers.PoolSize),
		zap.String("events_backend", cfg.EventsBackend),
		zap.String("credentials_backend", cfg.CredentialsBackend))

	if err := g.Wait(); err != nil {
		logger.Error("genflow stopped with error", zap.Error(err))
		return err
	}

	logger.Info("genflow shut down complete")
	return nil
}
