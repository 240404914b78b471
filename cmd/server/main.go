package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskchat-backend/internal/config"
	"taskchat-backend/internal/handler"
	"taskchat-backend/internal/model"
	"taskchat-backend/internal/service"
	"taskchat-backend/internal/storage"
	"taskchat-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

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

	ctx := context.Background()

	store := storage.New(cfg.Storage)
	defer store.Close()

	todos := service.NewTodoStore(ctx, store, service.WithAfterChange(func(ctx context.Context, items []model.TodoItem) {
		logger.WithFields(map[string]interface{}{"count": len(items)}).Debug("Todos saved")
	}))

	completionModel, err := model.NewCompletionModel(ctx, cfg.Upstream)
	if err != nil {
		logger.Fatalf("Failed to create completion model: %v", err)
	}
	proxy := service.NewProxyService(completionModel, cfg.Agent.SystemPrompt)

	gin.SetMode(gin.ReleaseMode)
	router := handler.SetupRouter(cfg, handler.NewChatHandler(proxy), handler.NewTodoHandler(todos))

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("Server listening on port %d (provider %s, model %s)", cfg.Server.Port, cfg.Upstream.Provider, cfg.Upstream.Model)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
