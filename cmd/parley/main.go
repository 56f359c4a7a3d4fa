package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/edoliveri/parley/internal/config"
	"github.com/edoliveri/parley/internal/httpapi"
	"github.com/edoliveri/parley/internal/meeting"
	"github.com/edoliveri/parley/internal/notify"
	"github.com/edoliveri/parley/internal/observability"
	"github.com/edoliveri/parley/internal/relay"
	"github.com/edoliveri/parley/internal/token"
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := meeting.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("meeting store init failed: %v", err)
	}
	defer store.Close()
	if cfg.DatabaseURL != "" {
		log.Printf("meeting store: postgres")
	} else {
		log.Printf("meeting store: in-memory")
	}

	registry := meeting.NewRegistry(store, token.NewGenerator(), cfg.InviteTTL)
	registry.SetCollisionHook(func() {
		metrics.TokenCollisions.Inc()
	})
	registry.SetSweepHook(func(removed int) {
		log.Printf("swept %d expired meetings", removed)
	})

	notifier, err := notify.New(cfg.NotifyMode, cfg.NotifyWebhookURL, cfg.NotifyTimeout)
	if err != nil {
		log.Fatalf("notifier init failed: %v", err)
	}

	hub := relay.NewHub()
	hub.SetDeliveryHook(func(event, outcome string) {
		metrics.RelayDeliveries.WithLabelValues(event, outcome).Inc()
	})

	api := httpapi.New(cfg, registry, hub, notifier, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	if cfg.SweepInterval > 0 {
		registry.StartSweeper(runCtx, cfg.SweepInterval, cfg.SweepRetention)
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
