package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/technophil98/traefik-docker-http-provider-server/internal/adapters/docker"
	"github.com/technophil98/traefik-docker-http-provider-server/internal/adapters/http"
	"github.com/technophil98/traefik-docker-http-provider-server/internal/config"
	"github.com/technophil98/traefik-docker-http-provider-server/internal/core/domain"
	"github.com/technophil98/traefik-docker-http-provider-server/internal/core/services"
	"github.com/technophil98/traefik-docker-http-provider-server/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

// run wires the service and blocks until shutdown. Its deferred cleanup
// completes before main exits with the returned code.
func run() int {
	// 1. Load configuration; a missing or malformed BASE_URL stops us here.
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("Failed to initialize logging: %v", err)
	}

	// 2. Initialize Adapters (Infrastructure)
	dockerAdapter, err := docker.NewAdapter()
	if err != nil {
		log.Fatalf("Failed to initialize Docker adapter: %v", err)
	}
	defer dockerAdapter.Close()

	// 3. Core service: the Docker adapter implements ports.ContainerService.
	provider := services.NewProviderService(
		dockerAdapter,
		cfg.BaseURL,
		domain.NewLabelExtractor(cfg.LabelPrefix),
		services.Options{
			DiscoveryTimeout:      cfg.DiscoveryTimeout,
			SkipInvalidContainers: cfg.SkipInvalidContainers,
		},
		log,
	)

	// 4. Setup Framework (Fiber) and routes
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	http.Use(app, log)
	http.NewConfigurationHandler(provider, log).Register(app)

	// 5. Serve until a signal arrives or the listener fails.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"addr":         cfg.ListenAddr,
		"base_url":     cfg.BaseURL.String(),
		"label_prefix": cfg.LabelPrefix,
	}).Info("listening")
	if err := serve(ctx, app, cfg.ListenAddr, log); err != nil {
		log.WithError(err).Error("server stopped")
		return 1
	}
	return 0
}

// serve runs app on addr until ctx is done, then shuts it down. A listener
// failure is returned instead of exiting so deferred cleanup still runs.
func serve(ctx context.Context, app *fiber.App, addr string, log logrus.FieldLogger) error {
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
