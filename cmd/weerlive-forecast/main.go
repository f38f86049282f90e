package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weerlive-forecast/internal/api/http"
	"github.com/i474232898/weerlive-forecast/internal/config"
	"github.com/i474232898/weerlive-forecast/internal/logger"
	"github.com/i474232898/weerlive-forecast/internal/metrics"
	"github.com/i474232898/weerlive-forecast/internal/scheduler"
	"github.com/i474232898/weerlive-forecast/internal/store"
	"github.com/i474232898/weerlive-forecast/internal/weather"
	"github.com/i474232898/weerlive-forecast/internal/weather/providers"
)

const serviceName = "weerlive-forecast"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.Env).WithField("service", serviceName)
	if cfg.ZoneFallback {
		log.Warnf("unknown timezone %q, using UTC", cfg.Timezone)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Weerlive provider with a circuit breaker per location.
	provider := providers.NewWeerliveProvider(httpClient, cfg.BaseURL, cfg.APIKey, cfg.Breaker()).
		WithRateLimit(cfg.RequestsPerSecond, cfg.RequestBurst)

	normalizer := weather.NewNormalizer(cfg.Zone, cfg.CoordinateMap(), weather.NewIconSet(cfg.Icons, cfg.FallbackIcon))
	recorder := metrics.NewPrometheusRecorder()

	// Core service orchestrating provider, normalization and store.
	service := weather.NewService(memStore, provider, normalizer, cfg.LocationIDs(),
		weather.WithLogger(log.WithField("component", "service")),
		weather.WithRecorder(recorder),
		weather.WithNullPolicy(cfg.NullPolicy()),
	)

	// Scheduler that runs forecast sessions.
	sched := scheduler.New(service, cfg.RefreshInterval, cfg.SessionTimeout, cfg.Zone, log.WithField("component", "scheduler"))
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(serviceName)

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(recorder.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		log.Infof("listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorf("error during shutdown: %v", err)
	}
}
