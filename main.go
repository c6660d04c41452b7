package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eddielth/sensor-gate/config"
	"github.com/eddielth/sensor-gate/logger"
	"github.com/eddielth/sensor-gate/mqtt"
	"github.com/eddielth/sensor-gate/server"
	"github.com/eddielth/sensor-gate/storage"
	"github.com/eddielth/sensor-gate/transformer"
	"github.com/eddielth/sensor-gate/validator"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := logger.InitFromConfig(cfg.Logger.Level, cfg.Logger.FilePath,
		cfg.Logger.MaxSize, cfg.Logger.MaxBackups, cfg.Logger.Console); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Close()

	ranges, err := validator.NewRanges(
		cfg.Ranges.TempMin, cfg.Ranges.TempMax,
		cfg.Ranges.PressureMin, cfg.Ranges.PressureMax,
		cfg.Ranges.HumidityMin, cfg.Ranges.HumidityMax,
	)
	if err != nil {
		logger.Error("invalid validation ranges: %v", err)
		os.Exit(1)
	}

	scripts, err := transformer.NewScriptManager(cfg.Scripts)
	if err != nil {
		logger.Error("failed to initialize firmware scripts: %v", err)
		os.Exit(1)
	}

	pipeline := transformer.New(cfg.Transformer.Strict, ranges, scripts)

	// Publish sink: one client for the whole process lifetime
	var publisher *mqtt.Publisher
	if cfg.MQTT.Broker != "" {
		publisher, err = mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			logger.Error("failed to initialize MQTT publisher: %v", err)
			os.Exit(1)
		}
		if err := publisher.Connect(); err != nil {
			logger.Error("failed to connect to MQTT broker: %v", err)
			os.Exit(1)
		}
		defer publisher.Disconnect()
	} else {
		logger.Warn("MQTT broker not configured, publish sink disabled")
	}

	// Storage sinks
	backends := make([]storage.Backend, 0, 2)
	if cfg.Storage.File.Enabled {
		fileStorage, err := storage.NewFileStorage(cfg.Storage.File.Path)
		if err != nil {
			logger.Error("failed to initialize file storage: %v", err)
			os.Exit(1)
		}
		backends = append(backends, fileStorage)
	}
	if cfg.Storage.Database.Enabled {
		dbStorage, err := storage.NewDatabaseStorage(cfg.Storage.Database.Type, cfg.Storage.Database.DSN)
		if err != nil {
			logger.Error("failed to initialize database storage: %v", err)
			os.Exit(1)
		}
		backends = append(backends, dbStorage)
	}

	var store server.StoreSink
	storageManager := storage.NewManager(backends)
	defer storageManager.Close()
	if len(backends) > 0 {
		store = storageManager
	} else {
		logger.Warn("no storage backend enabled, storage sink disabled")
	}

	var publish server.PublishSink
	if publisher != nil {
		publish = publisher
	}

	srv := server.New(cfg.Server, pipeline, publish, store)

	// Hot reload covers firmware scripts and the log level; everything else
	// takes effect after a restart
	err = config.WatchConfig(*configPath, func(newCfg *config.Config) error {
		for label, scriptCfg := range newCfg.Scripts {
			if err := scripts.Reload(label, scriptCfg); err != nil {
				logger.Error("failed to reload script for firmware %s: %v", label, err)
			}
		}
		if err := logger.SetLevel(newCfg.Logger.Level); err != nil {
			logger.Warn("keeping current log level: %v", err)
		}
		return nil
	})
	if err != nil {
		logger.Warn("failed to watch configuration file: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("sensor-gate started, waiting for sensor data...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received signal %s, shutting down", sig)
	case err := <-errCh:
		logger.Error("HTTP server stopped: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down HTTP server cleanly: %v", err)
	}

	logger.Info("sensor-gate stopped")
}
