package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/straye-as/minicrm/internal/config"
	"github.com/straye-as/minicrm/internal/database"
	"github.com/straye-as/minicrm/internal/http/handler"
	"github.com/straye-as/minicrm/internal/http/middleware"
	"github.com/straye-as/minicrm/internal/http/router"
	"github.com/straye-as/minicrm/internal/jobs"
	"github.com/straye-as/minicrm/internal/logger"
	"github.com/straye-as/minicrm/internal/repository"
	"github.com/straye-as/minicrm/internal/service"
	"github.com/straye-as/minicrm/internal/storage"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Basic configuration first, for logging setup
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	kv, checks, closeStore, err := openKeyValueStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	store := service.NewRecordStore(kv, log)
	exporter := service.NewExportService(store, fileStorage, log)

	// Bring stored records into canonical shape before serving
	if _, err := store.NormalizeAllCustomers(ctx); err != nil {
		return fmt.Errorf("failed to normalize customers: %w", err)
	}

	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	rt := router.NewRouter(cfg, log, rateLimiter, router.Handlers{
		Lead:         handler.NewLeadHandler(store, log),
		Customer:     handler.NewCustomerHandler(store, log),
		Offer:        handler.NewOfferHandler(store, log),
		Invoice:      handler.NewInvoiceHandler(store, log),
		Subscription: handler.NewSubscriptionHandler(store, log),
		Project:      handler.NewProjectHandler(store, log),
		Admin:        handler.NewAdminHandler(store, exporter, log),
	}, checks)

	scheduler := jobs.NewScheduler(log)
	if err := jobs.RegisterStoreJobs(scheduler, store, &cfg.Jobs, log); err != nil {
		return fmt.Errorf("failed to register jobs: %w", err)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		<-scheduler.Stop().Done()
		log.Info("Scheduler stopped")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}
		log.Info("Server stopped gracefully")
	}

	return nil
}

// openKeyValueStore connects the configured substrate and returns its readiness checks
func openKeyValueStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.KeyValueStore, map[string]router.ReadinessCheck, func(), error) {
	switch cfg.Store.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("Record store backed by redis", zap.String("addr", cfg.Redis.Addr))
		checks := map[string]router.ReadinessCheck{
			"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}
		return repository.NewRedisKeyValueStore(client, cfg.Redis.KeyPrefix), checks, func() { _ = client.Close() }, nil

	case "memory":
		log.Warn("Record store is in memory, data is lost on restart")
		return repository.NewMemoryKeyValueStore(), map[string]router.ReadinessCheck{}, func() {}, nil

	default:
		db, err := database.NewDatabase(&cfg.Database)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := database.AutoMigrate(db); err != nil {
				return nil, nil, nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		log.Info("Record store backed by database", zap.String("driver", cfg.Database.Driver))
		checks := map[string]router.ReadinessCheck{
			"database": func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repository.NewSQLKeyValueStore(db), checks, closeDB, nil
	}
}
