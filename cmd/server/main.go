package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alejandroruanova/idlookup-service/internal/api"
	"github.com/alejandroruanova/idlookup-service/internal/core/services/ingestion"
	"github.com/alejandroruanova/idlookup-service/internal/core/services/lookup"
	"github.com/alejandroruanova/idlookup-service/internal/infrastructure/lock"
	"github.com/alejandroruanova/idlookup-service/internal/infrastructure/parsers"
	"github.com/alejandroruanova/idlookup-service/internal/infrastructure/storage"
	"github.com/alejandroruanova/idlookup-service/internal/pkg/config"
	"github.com/alejandroruanova/idlookup-service/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	cfg.LogConfig()

	appLogger := logger.Initialize(cfg.IsProduction())

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, appLogger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := parsers.NewParserFactory(nil)
	if ext := filepath.Ext(cfg.DataFileName); !factory.IsSupported(ext) {
		return fmt.Errorf("unsupported data file type %q, expected one of %v", ext, factory.SupportedFormats())
	}

	slot, err := storage.NewLocalStorage(&storage.LocalStorageConfig{
		Dir:      cfg.DataDir,
		FileName: cfg.DataFileName,
	}, logger.NewServiceLogger("storage"))
	if err != nil {
		return err
	}
	if err := slot.CleanupTempFiles(ctx, time.Hour); err != nil {
		appLogger.Warn("failed to clean up temporary files", slog.Any("error", err))
	}
	if !slot.Exists() {
		appLogger.Info("no data file yet, waiting for an upload",
			slog.String("path", slot.DisplayPath()))
	} else if result, err := factory.ParseFile(ctx, slot.Path()); err != nil {
		appLogger.Warn("existing data file cannot be parsed, lookups will fail until a new upload",
			slog.String("path", slot.DisplayPath()),
			slog.Any("error", err))
	} else {
		appLogger.Info("existing data file loaded",
			slog.String("path", slot.DisplayPath()),
			slog.String("format", result.Format),
			slog.Int("rows", result.TotalRows))
	}

	locker, closeLocker, err := newLocker(cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	uploads := ingestion.NewService(slot, locker, logger.NewServiceLogger("ingestion"))
	searches := lookup.NewService(slot, factory, logger.NewServiceLogger("lookup"))

	server := api.NewServer(api.ServerConfig{
		PublicDir:        cfg.PublicDir,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		MaxUploadSize:    cfg.GetMaxUploadSize(),
		Debug:            cfg.IsDevelopment(),
	}, api.NewHandler(uploads, searches, logger.NewServiceLogger("api")), logger.NewServiceLogger("http"))

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info(fmt.Sprintf("Server started at http://localhost:%s", cfg.ServerPort),
			slog.String("addr", cfg.GetServerAddress()))
		errCh <- server.Start(cfg.GetServerAddress())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func newLocker(cfg *config.Config) (lock.Locker, func(), error) {
	if cfg.LockBackend != config.LockBackendRedis {
		return lock.NewLocalLocker(), func() {}, nil
	}

	locker, err := lock.NewRedisLocker(&lock.RedisConfig{
		Addr:     cfg.GetRedisURL(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Key:      cfg.LockKey,
		TTL:      time.Duration(cfg.LockTTLSeconds) * time.Second,
	}, logger.NewServiceLogger("lock"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect lock backend: %w", err)
	}

	return locker, func() { locker.Close() }, nil
}
