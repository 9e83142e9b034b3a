package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"vectra/internal/app"
	vcfg "vectra/internal/config"
	"vectra/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("VECTRA_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	watcher, err := vcfg.NewWatcher(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := watcher.Current()

	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("failed to init log file: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("config loaded (pair=%s, exchange=%s)", cfg.Trading.TradingPair(), cfg.Trading.Exchange)

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	a.WatchConfig(watcher)
	if err := a.Run(ctx); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
