package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"smartmusic/internal/config"
	"smartmusic/internal/kv"
	"smartmusic/internal/server"
	"smartmusic/internal/store"
)

func main() {
	configPath := "./config.toml"

	// Initialize basic logger for startup
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Load .env for GEMINI_API_KEY / NGROK_AUTHTOKEN before anything reads
	// the environment.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			logger.WithError(err).Warn("Could not load .env file")
		}
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}
	applyLoggingConfig(logger, &cfg.Logging)

	// Open the blob store and the application document on top of it
	kvStore, err := kv.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error opening store")
	}
	defer kvStore.Close()

	appStore, err := store.Open(kvStore, cfg.Store.AdminEmail, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error opening application store")
	}

	// Create and configure the music server
	musicServer, err := server.NewMusicServer(cfg, appStore, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error creating music server")
	}

	// Hot-reload logging settings on config file changes
	watcher, err := config.NewWatcher(configPath, logger, func(updated *config.Config) {
		applyLoggingConfig(logger, &updated.Logging)
	})
	if err != nil {
		logger.WithError(err).Warn("Could not start config watcher")
	} else {
		defer watcher.Close()
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := musicServer.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-c

	logger.Info("Received shutdown signal")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := musicServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}

// applyLoggingConfig points the shared logger at the configured level,
// format and output file.
func applyLoggingConfig(logger *logrus.Logger, cfg *config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.WithField("level", cfg.Level).Warn("Unknown log level, keeping current")
	} else {
		logger.SetLevel(level)
	}

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger.WithError(err).Warn("Could not open log file, logging to stderr")
		} else {
			logger.SetOutput(f)
		}
	}
}
