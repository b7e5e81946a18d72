/*
Package main is the entry point for the bucketfront file service.

It loads configuration, initializes the global logger, connects the storage backend, serves the
HTTP API and shuts down gracefully on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bucketfront/internal/app/files"
	"bucketfront/internal/app/storage"
	"bucketfront/internal/configs"
	"bucketfront/internal/handler"
	"bucketfront/internal/pkg/logx"
)

func main() {
	if err := configs.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("storage_driver", cfg.StorageDriver).
		Str("bucket", cfg.S3BucketName).
		Str("region", cfg.S3Region).
		Int("upload_concurrency", cfg.UploadConcurrency).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := storage.NewStorageService(ctx, storage.ServiceConfig{
		Driver:            cfg.StorageDriver,
		S3Region:          cfg.S3Region,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize storage backend")
	}

	fileService, err := files.NewService(backend, files.Config{
		Bucket:            cfg.S3BucketName,
		UploadConcurrency: cfg.UploadConcurrency,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize file service")
	}

	deps := &handler.AppDeps{
		Config: cfg,
		Files:  fileService,
	}
	if mem, ok := backend.(*storage.MemoryBackend); ok {
		deps.Objects = mem
		logx.Warn("Using in-memory storage; objects are lost on restart", "objects_url", cfg.S3Endpoint)
	}

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler.Router(ctx, deps),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("bucketfront starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
