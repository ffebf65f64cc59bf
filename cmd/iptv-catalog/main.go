package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.etcd.io/bbolt"

	"github.com/alorle/iptv-catalog/circuitbreaker"
	"github.com/alorle/iptv-catalog/config"
	"github.com/alorle/iptv-catalog/internal/adapter/driven"
	"github.com/alorle/iptv-catalog/internal/adapter/driver"
	"github.com/alorle/iptv-catalog/internal/application"
	"github.com/alorle/iptv-catalog/internal/catalog"
	"github.com/alorle/iptv-catalog/internal/notification"
	"github.com/alorle/iptv-catalog/metrics"
)

func main() {
	printConfig := flag.Bool("print-config", false, "print the resolved configuration and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *printConfig {
		cfg.Print()
		return
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("invalid log level: %v", err)
	}

	// Create structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting iptv-catalog",
		"address", cfg.HTTP.Address,
		"port", cfg.HTTP.Port,
		"db_path", cfg.Storage.DBPath,
		"log_level", level.String(),
		"backup_dir", cfg.Backup.Dir,
	)

	// Open BoltDB
	db, err := bbolt.Open(cfg.Storage.DBPath, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("error closing database: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create driven adapters
	store, err := driven.NewCatalogBoltDBStore(db)
	if err != nil {
		log.Fatalf("failed to create catalog store: %v", err)
	}

	proxyBreaker := circuitbreaker.New(circuitbreaker.Config{
		Name:             "playlist-proxy",
		FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
		Timeout:          cfg.CircuitBreaker.Timeout,
		HalfOpenRequests: cfg.CircuitBreaker.HalfOpenRequests,
		Logger:           logger,
		OnStateChange: func(name string, _, to circuitbreaker.State) {
			metrics.SetCircuitBreakerState(name, to.String())
			if to == circuitbreaker.StateOpen {
				metrics.RecordCircuitBreakerTrip(name)
			}
		},
	})
	metrics.SetCircuitBreakerState("playlist-proxy", proxyBreaker.State().String())

	fetcher := driven.NewPlaylistHTTPFetcher(
		&http.Client{Timeout: cfg.Fetch.Timeout},
		cfg.Fetch.ProxyURL,
		proxyBreaker,
		logger,
	)
	engine := driven.NewHLSPlaybackEngine(
		&http.Client{Timeout: cfg.Playback.Timeout},
		cfg.Playback.MaxFailures,
		logger,
	)
	notices := notification.NewCenter(cfg.Notifications.TTL)

	// Create application services
	catalogService := application.NewCatalogService(store, fetcher, notices, catalog.UUIDGenerator{}, logger)
	if err := catalogService.Hydrate(ctx, cfg.Catalog.SeedSamples); err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}
	playbackService := application.NewPlaybackService(ctx, catalogService, engine, notices, logger)
	defer playbackService.Stop()
	healthService := application.NewHealthService(store)

	if cfg.Backup.Dir != "" {
		backupService := application.NewBackupService(catalogService, cfg.Backup.Dir, cfg.Backup.Keep, logger)
		if err := backupService.Start(cfg.Backup.Schedule); err != nil {
			log.Fatalf("failed to schedule backups: %v", err)
		}
		defer backupService.Stop()
	}

	// Register routes
	router := mux.NewRouter()
	router.Use(driver.RequestLogger(logger))
	driver.NewChannelHTTPHandler(catalogService).Register(router)
	driver.NewPlaylistHTTPHandler(catalogService, logger).Register(router)
	driver.NewCatalogHTTPHandler(catalogService).Register(router)
	driver.NewPlayerHTTPHandler(playbackService).Register(router)
	driver.NewNotificationHTTPHandler(notices).Register(router)
	driver.NewHealthHTTPHandler(healthService).Register(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Create HTTP server
	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.HTTP.Address, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HTTPWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
