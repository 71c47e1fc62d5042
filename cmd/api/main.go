package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/shelfstock-backend/api/controllers"
	"github.com/angelmondragon/shelfstock-backend/api/routes"
	"github.com/angelmondragon/shelfstock-backend/internal/containers"
	"github.com/angelmondragon/shelfstock-backend/internal/observe"
	"github.com/angelmondragon/shelfstock-backend/internal/products"
	"github.com/angelmondragon/shelfstock-backend/internal/shelves"
	"github.com/angelmondragon/shelfstock-backend/pkg/config"
	"github.com/angelmondragon/shelfstock-backend/pkg/db"
	"github.com/angelmondragon/shelfstock-backend/pkg/ids"
	"github.com/angelmondragon/shelfstock-backend/pkg/logger"
	"github.com/angelmondragon/shelfstock-backend/pkg/metrics"
	"github.com/angelmondragon/shelfstock-backend/pkg/migrate"
	"github.com/angelmondragon/shelfstock-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	closers := []func() error{dbClient.Close}

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to apply migrations", err)
		os.Exit(1)
	}

	readiness := map[string]controllers.Pinger{"database": dbClient, "redis": nil}
	var idempotencyStore redis.IdempotencyStore
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		closers = append(closers, redisClient.Close)
		readiness["redis"] = redisClient
		idempotencyStore = redisClient
	} else {
		logg.Info(ctx, "redis disabled, idempotency keys are ignored")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tracker := observe.NewTracker(logg, metrics.NewOperationMetrics(registry))
	generator := ids.NewGenerator()

	productService, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient, generator, tracker)
	requireService(ctx, logg, "products", err)
	containerService, err := containers.NewService(containers.NewRepository(dbClient.DB()), dbClient, generator, tracker)
	requireService(ctx, logg, "containers", err)
	shelfService, err := shelves.NewService(shelves.NewRepository(dbClient.DB()), dbClient, generator, tracker)
	requireService(ctx, logg, "shelves", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"dialect": dbClient.Dialect(),
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			readiness,
			idempotencyStore,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			routes.Services{
				Products:   productService,
				Containers: containerService,
				Shelves:    shelfService,
			},
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			closeAll(serverCtx, logg, closers)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "graceful shutdown failed", err)
		}
	}

	closeAll(serverCtx, logg, closers)
}

func requireService(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "service", name), "failed to create service", err)
	os.Exit(1)
}

func closeAll(ctx context.Context, logg *logger.Logger, closers []func() error) {
	var err error
	for i := len(closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, closers[i]())
	}
	if err != nil {
		logg.Error(ctx, "error closing resources", err)
	}
}
