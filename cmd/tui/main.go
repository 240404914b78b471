package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"taskchat-backend/internal/config"
	"taskchat-backend/internal/service"
	"taskchat-backend/internal/storage"
	"taskchat-backend/internal/tui"
	"taskchat-backend/pkg/logger"
)

func main() {
	var configPath, logPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to the config file")
	flag.StringVar(&logPath, "log", "", "write logs to this file (discarded when empty)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// the terminal belongs to the UI
	var out io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		out = f
	}
	logger.SetOutput(out)

	store := storage.New(cfg.Storage)
	defer store.Close()

	todos := service.NewTodoStore(context.Background(), store)
	conv := service.NewConversation(service.NewChatClient(cfg.Client))

	if err := tui.Run(todos, conv); err != nil {
		logger.Errorf("TUI exited with error: %v", err)
		os.Exit(1)
	}
}
