package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hafleet/dashboard/internal/api"
	"github.com/hafleet/dashboard/internal/cache"
	"github.com/hafleet/dashboard/internal/config"
	"github.com/hafleet/dashboard/internal/logger"
	"github.com/hafleet/dashboard/internal/poller"
	"github.com/hafleet/dashboard/internal/repository"
	"github.com/hafleet/dashboard/internal/service"
	"github.com/hafleet/dashboard/pkg/httpserver"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New("info").Error("failed to load configuration",
			"error", err.Error(),
		)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	// Resolve the backend address once; everything downstream receives the
	// final value.
	config.ResolveBackendURL(context.Background(), cfg, log)

	log.Info("configuration loaded",
		"backend_url", cfg.Backend.URL,
		"poll_interval", cfg.Poll.Interval.String(),
	)

	store := cache.New(cfg.Cache.TTL)

	backend, err := repository.NewBackendClient(&cfg.Backend, log)
	if err != nil {
		log.Error("failed to create backend client",
			"error", err.Error(),
		)
		os.Exit(1)
	}

	svc := service.NewFleetService(backend, store, cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fleetPoller := poller.New(cfg.Poll, backend, store, log)
	fleetPoller.Start(ctx)

	handler := api.NewHandler(svc, cfg, log)

	srv := httpserver.New(
		cfg.Server.Addr,
		handler.Router(),
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		log,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Run()
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Error("server error",
				"error", err.Error(),
			)
		}
	case sig := <-quit:
		log.Info("received shutdown signal",
			"signal", sig.String(),
		)
	}

	log.Info("shutting down poller")
	cancel()
	fleetPoller.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down http server",
			"error", err.Error(),
		)
	}

	log.Info("shutdown complete")
}
