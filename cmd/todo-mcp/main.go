package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"taskchat-backend/internal/config"
	"taskchat-backend/internal/service"
	"taskchat-backend/internal/storage"
	"taskchat-backend/internal/tools"
	"taskchat-backend/pkg/logger"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// stdout carries the stdio protocol
	logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := storage.New(cfg.Storage)
	defer store.Close()

	todos := service.NewTodoStore(ctx, store)
	s := tools.NewServer(cfg.MCP, todos)

	logger.Infof("Serving %d todos over MCP %s", len(todos.Items()), cfg.MCP.Transport)
	if err := tools.Serve(ctx, cfg.MCP, s); err != nil && err != http.ErrServerClosed {
		logger.Errorf("MCP server stopped: %v", err)
	}
}
