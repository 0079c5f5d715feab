package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hauntmuskie/naivebayes-nggo/config"
	"github.com/hauntmuskie/naivebayes-nggo/db"
	nbhttp "github.com/hauntmuskie/naivebayes-nggo/http"
	"github.com/hauntmuskie/naivebayes-nggo/logging"
	"github.com/hauntmuskie/naivebayes-nggo/pipeline"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Path:       cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer logger.Sync()

	store, err := db.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("path", cfg.Database.Path), zap.Error(err))
	}
	defer store.Close()
	logger.Info("database ready", zap.String("path", cfg.Database.Path))

	registry, err := pipeline.NewRegistry(store, cfg.Model.CacheSize, logger)
	if err != nil {
		logger.Fatal("failed to create model registry", zap.Error(err))
	}
	if count, err := registry.Reload(); err != nil {
		logger.Warn("failed to preload models", zap.Error(err))
	} else {
		logger.Info("models preloaded", zap.Int("count", count))
	}

	training := pipeline.NewTrainingPipeline(registry, logger)
	inference := pipeline.NewInferencePipeline(registry, logger)

	hub := nbhttp.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	handlers := nbhttp.NewHandlers(registry, training, inference, store, hub, logger)
	server := nbhttp.NewServer(nbhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        time.Duration(cfg.Http.TimeoutSeconds) * time.Second,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, handlers, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	stopWatch, err := config.Watch("config.yaml", func(fresh *config.Config) {
		logger.Info("config reloaded", zap.String("log_level", fresh.Log.Level))
	})
	if err != nil {
		logger.Warn("config watch unavailable", zap.Error(err))
	} else {
		defer stopWatch()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}
