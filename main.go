package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"delaycast/config"
	"delaycast/db"
	qhttp "delaycast/http"
	"delaycast/logging"
	"delaycast/monitoring"
	"delaycast/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, level, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open storage
	if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
		logger.Fatal("create storage dir", zap.String("dir", cfg.Storage.Dir), zap.Error(err))
	}
	models, err := storage.NewModelStore(cfg.Storage.Dir)
	if err != nil {
		logger.Fatal("init model store", zap.Error(err))
	}
	history, err := openHistory(cfg)
	if err != nil {
		logger.Fatal("open history", zap.Error(err))
	}
	defer history.Close()
	logger.Info("storage ready",
		zap.String("model", models.Path()),
		zap.String("history_backend", cfg.Storage.HistoryBackend))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hub := monitoring.NewHub(logger)
	go hub.Run(ctx)

	if _, err := os.Stat(*configPath); err == nil {
		go func() {
			err := config.Watch(ctx, *configPath, logger, func(next *config.Config) {
				lvl, err := logging.ParseLevel(next.Log.Level)
				if err != nil {
					return
				}
				if lvl != level.Level() {
					level.SetLevel(lvl)
					logger.Info("log level changed", zap.Stringer("level", lvl))
				}
			})
			if err != nil {
				logger.Warn("config watch stopped", zap.Error(err))
			}
		}()
	}

	// 3. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		Timeout:        cfg.HTTP.Timeout,
		MaxBodyBytes:   cfg.HTTP.MaxUploadMB << 20,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, &qhttp.Service{
		Models:   models,
		History:  history,
		Metrics:  monitoring.NewMetrics(reg),
		Stream:   hub,
		Gatherer: reg,
		Logger:   logger,
	})
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 4. Handle graceful shutdown
	<-ctx.Done()
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}

func openHistory(cfg *config.Config) (storage.History, error) {
	if cfg.Storage.HistoryBackend == config.HistorySQLite {
		return db.OpenHistory(filepath.Join(cfg.Storage.Dir, db.HistoryFileName))
	}
	return storage.NewJSONLHistory(filepath.Join(cfg.Storage.Dir, storage.HistoryFileName)), nil
}
