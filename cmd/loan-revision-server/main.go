package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/loan-revision/internal/indexstore"
	"github.com/iwvelando/loan-revision/internal/logging"
	"github.com/iwvelando/loan-revision/internal/revision"
	"github.com/iwvelando/loan-revision/internal/scheduler"
	"github.com/iwvelando/loan-revision/internal/server"
	"github.com/iwvelando/loan-revision/pkg/constants"
	"github.com/iwvelando/loan-revision/pkg/loans"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}
	if env := os.Getenv("LOAN_REVISION_INDICES_DSN"); env != "" {
		cfg.Indices.DSN = env
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := indexstore.Open(cfg.Indices.StoreConfig())
	if err != nil {
		logger.Fatal("failed to open index store", zap.String("op", "main"), zap.Error(err))
	}
	defer store.Close()

	var (
		lookup      loans.IndexLookup = store
		invalidator indexstore.Invalidator
	)
	if addr := cfg.Indices.Cache.RedisAddress; addr != "" {
		cache := indexstore.NewRedisCache(addr)
		defer cache.Close()
		cached := indexstore.NewCachedLookup(store, cache, cfg.Indices.Cache.TTL, logger)
		lookup, invalidator = cached, cached
	}

	jobs := scheduler.New(logger, 10*time.Minute)
	if cfg.Indices.ImportFile != "" {
		importer := indexstore.NewImporter(store, logger).WithInvalidator(invalidator)
		job := scheduler.NewImportJob(importer, cfg.Indices.ImportFile)
		if err := jobs.RunNow(job); err != nil {
			logger.Error("initial index import failed", zap.String("op", "main"), zap.Error(err))
		}
		if cfg.Indices.ImportSchedule != "" {
			if err := jobs.AddJob(cfg.Indices.ImportSchedule, job); err != nil {
				logger.Fatal("failed to schedule index import", zap.String("op", "main"), zap.Error(err))
			}
		}
	}
	jobs.Start()
	defer jobs.Stop()

	handler := server.NewHandler(revision.NewService(lookup, logger), store, logger, server.Options{
		MaxUploadSize:  cfg.UploadSizeBytes(),
		Version:        version,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Invalidator:    invalidator,
	})

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("op", "main"), zap.String("address", cfg.Address), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.String("op", "main"), zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server", zap.String("op", "main"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.String("op", "main"), zap.Error(err))
	}
	logger.Info("server stopped", zap.String("op", "main"))
}
