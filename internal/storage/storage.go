package storage

import (
	"taskchat-backend/internal/config"
	"taskchat-backend/pkg/logger"
)

// New builds the backend named by cfg.Type and initialises it. A backend
// that fails to initialise is replaced by in-memory storage so the process
// still runs; state then lives only for the session.
func New(cfg config.StorageConfig) Storage {
	var store Storage

	switch cfg.Type {
	case "file", "disk":
		store = NewDiskStorage(cfg.DataDir, cfg.FileName)
	case "redis":
		store = NewRedisStorage(cfg.Redis)
	case "miniredis":
		store = NewMiniRedisStorage()
	case "memory", "":
		store = NewMemoryStorage()
	default:
		logger.Warnf("Unknown storage type %q, using memory", cfg.Type)
		store = NewMemoryStorage()
	}

	if err := store.Init(); err != nil {
		logger.Errorf("Failed to initialize %s storage: %v", cfg.Type, err)
		store = NewMemoryStorage()
		store.Init()
	}

	return store
}
