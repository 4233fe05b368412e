package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bark-labs/push-relay/internal/config"
	"github.com/bark-labs/push-relay/internal/delivery"
	"github.com/bark-labs/push-relay/internal/logger"
	"github.com/bark-labs/push-relay/internal/pushclient"
	"github.com/bark-labs/push-relay/internal/registry"
	"github.com/bark-labs/push-relay/internal/server"
	"github.com/bark-labs/push-relay/internal/service"
	"github.com/bark-labs/push-relay/internal/storage/bolt"
	"github.com/bark-labs/push-relay/internal/vapid"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("push relay stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	store, err := bolt.New(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	keys := vapid.New(keyStore(cfg, store))
	pair, err := keys.Initialize(context.Background())
	if err != nil {
		return fmt.Errorf("provision vapid keys: %w", err)
	}
	log.Info("vapid keys ready",
		slog.String("store", cfg.VAPID.Store),
		slog.String("public_key", pair.PublicKey),
	)
	if cfg.VAPID.LogPrivateKey {
		log.Warn("vapid private key", slog.String("private_key", pair.PrivateKey))
	}

	client, err := pushclient.New(keys, pushclient.Options{
		Subject: cfg.VAPID.Subject,
		TTL:     cfg.Delivery.TTL,
		Urgency: cfg.Delivery.Urgency,
		Timeout: cfg.Delivery.Timeout,
	})
	if err != nil {
		return fmt.Errorf("init push client: %w", err)
	}

	reg := registry.New()
	engine := delivery.NewEngine(client, cfg.Delivery.Timeout, log)
	dispatchSvc := service.NewDispatchService(reg, engine, store, cfg.Delivery.PruneGone, log)
	logSvc := service.NewDeliveryLogService(store)
	authSvc := service.NewAuthService(cfg)

	srv := server.New(cfg, reg, keys, dispatchSvc, logSvc, authSvc, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// graceful shutdown
	select {
	case err := <-errCh:
		return err
	case <-waitForSignal():
	}
	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
	}
	return nil
}

// keyStore picks where the VAPID pair lives: configured keys win, then the
// bolt file, then process memory.
func keyStore(cfg *config.Config, store *bolt.Store) vapid.KeyStore {
	switch {
	case cfg.VAPID.PublicKey != "" && cfg.VAPID.PrivateKey != "":
		return vapid.NewStaticKeyStore(cfg.VAPID.PublicKey, cfg.VAPID.PrivateKey)
	case cfg.VAPID.Store == config.KeyStoreBolt:
		return store
	default:
		return vapid.NewMemoryKeyStore()
	}
}

func waitForSignal() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
