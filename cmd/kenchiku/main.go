package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/kenchiku/pkg/analytics"
	"github.com/platinummonkey/kenchiku/pkg/api"
	"github.com/platinummonkey/kenchiku/pkg/config"
	"github.com/platinummonkey/kenchiku/pkg/observability"
	"github.com/platinummonkey/kenchiku/pkg/search"
	"github.com/platinummonkey/kenchiku/pkg/storage/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("failed to initialize OpenTelemetry")
		os.Exit(1)
	}

	var metrics *observability.Metrics
	registry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	conns, err := postgres.NewConnectionManager(postgres.ConnectionConfig{
		PrimaryURL:  cfg.Storage.PostgresURL,
		ReplicaURLs: postgres.ParseReplicaURLs(cfg.Storage.PostgresReplicaURLs),
		MaxConns:    cfg.Storage.PostgresMaxConns,
		MinConns:    cfg.Storage.PostgresMinConns,
		Timeout:     cfg.Storage.PostgresTimeout,
		MaxLifetime: 30 * time.Minute,
		MaxIdleTime: 5 * time.Minute,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer conns.Close()

	store := postgres.NewStore(conns, logger, metrics)

	redisClient, err := postgres.NewRedisClient(cfg.Storage)
	if err != nil {
		// The cache is optional; run without it rather than refusing to start
		logger.WithError(err).Warn("redis unavailable, search cache degraded to in-process only")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var cache *search.ResponseCache
	if cfg.Storage.CacheEnabled {
		cache = search.NewResponseCache(redisClient, cfg.Storage.L1CacheSize, cfg.Storage.CacheTTL, logger, metrics)
	}

	service := search.NewService(store, logger, search.Options{
		Cache:    cache,
		Metrics:  metrics,
		Recorder: analytics.NewRecorder(conns.Primary()),
	})

	if metrics != nil {
		metrics.CollectDBStats(conns.Primary(), 15*time.Second, ctx.Done())
	}

	if path := os.Getenv("KENCHIKU_CONFIG_FILE"); path != "" {
		if err := config.WatchFile(path, logger, ctx.Done()); err != nil {
			logger.WithError(err).Warn("config file watching disabled")
		}
	}

	var handler http.Handler = api.NewServer(logger, metrics, search.NewHandlers(service, logger))
	if cfg.Observability.OTelEnabled {
		handler = otelhttp.NewHandler(handler, "kenchiku-api")
	}

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(conns.Primary(), redisClient))
	observability.RegisterMetricsEndpoint(healthMux, registry)
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("starting API server")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down")
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("API server shutdown failed")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("health server shutdown failed")
		}
		if err := observability.ShutdownOTel(shutdownCtx, providers, logger); err != nil {
			logger.WithError(err).Error("OpenTelemetry shutdown failed")
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
