package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xtrntr/ihome/internal/api"
	"github.com/xtrntr/ihome/internal/auth"
	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/cache"
	"github.com/xtrntr/ihome/internal/config"
	"github.com/xtrntr/ihome/internal/db"
	"github.com/xtrntr/ihome/internal/jobs"
	"github.com/xtrntr/ihome/internal/listing"
	"github.com/xtrntr/ihome/internal/logging"
	"github.com/xtrntr/ihome/internal/notify"
	"github.com/xtrntr/ihome/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// Main entry point: loads configuration, wires the services and serves HTTP
func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	database, err := db.NewDB(ctx, cfg.Database.URL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close(context.Background())

	// Redis is optional at startup, the breaker keeps requests on Postgres
	redisClient := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	houseCache := cache.New(redisClient, cfg.Redis.BreakerTimeout, logger)
	defer houseCache.Close()
	if err := houseCache.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Redis unreachable, serving without cache")
	}

	images, err := storage.NewLocalStore(cfg.Storage.Dir, cfg.Storage.URLPrefix, cfg.Storage.MaxBytes)
	if err != nil {
		logger.WithError(err).Fatal("Failed to prepare image storage")
	}

	authService := auth.NewAuthService(database, images, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hub := notify.NewHub(authService, logger)
	defer hub.Close()

	listingService := listing.NewService(database, houseCache, images, logger)
	bookingService := booking.NewService(database, houseCache, hub, logger, cfg.Search.PageSize)

	scheduler, err := jobs.NewScheduler(cfg.Jobs.IndexRefresh, listingService, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to set up jobs")
	}
	// Warm the home page before the first request
	scheduler.RefreshIndex()
	scheduler.Start()

	// Initialize API handlers
	handler := api.NewHandler(bookingService, listingService, authService, logger)
	handler.Hub = hub
	handler.MaxUpload = int64(cfg.Storage.MaxBytes)

	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: cfg.Server.CORSOrigins,
		ImageDir:    images.Dir(),
		ImagePrefix: cfg.Storage.URLPrefix,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
}
