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

	"github.com/averroes-labs/storefront-gateway/api/routes"
	"github.com/averroes-labs/storefront-gateway/internal/auth"
	"github.com/averroes-labs/storefront-gateway/internal/backend"
	"github.com/averroes-labs/storefront-gateway/internal/cartsync"
	"github.com/averroes-labs/storefront-gateway/internal/catalog"
	"github.com/averroes-labs/storefront-gateway/internal/content"
	"github.com/averroes-labs/storefront-gateway/internal/events"
	"github.com/averroes-labs/storefront-gateway/internal/orders"
	"github.com/averroes-labs/storefront-gateway/pkg/config"
	"github.com/averroes-labs/storefront-gateway/pkg/logger"
	"github.com/averroes-labs/storefront-gateway/pkg/metrics"
	redispkg "github.com/averroes-labs/storefront-gateway/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var cache *redispkg.Client
	if cfg.Redis.Configured() {
		cache, err = redispkg.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "no redis endpoint configured, caching disabled")
	}

	backendClient, err := backend.NewClient(cfg.Backend, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create backend client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	cartMetrics := metrics.NewCartSyncMetrics(registry)
	bus := events.NewBus()

	cartEngine, err := cartsync.NewEngine(backendClient, bus, logg, cartMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart engine", err)
		os.Exit(1)
	}
	catalogService, err := catalog.NewService(backendClient, cache, cfg.Cache, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(backendClient, bus, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	authService, err := auth.NewService(backendClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	contentService, err := content.NewService(backendClient, cache, cfg.Cache, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create content service", err)
		os.Exit(1)
	}

	bus.Subscribe(events.TopicCartUpdated, func() {
		logg.Info(context.Background(), "cart updated")
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"backend": cfg.Backend.BaseURL,
	})
	logg.Info(ctx, "starting storefront gateway")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			cache,
			cartEngine,
			catalogService,
			ordersService,
			authService,
			contentService,
			registry,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "gateway stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			_ = server.Close()
		}
	}
}
