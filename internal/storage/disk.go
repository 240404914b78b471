package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"taskchat-backend/pkg/logger"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// DiskStorage keeps every slot in one JSON object file. Writes go through a
// temp file and a rename; a sibling .lock file serialises writers across
// processes (the server, the TUI and the MCP binary may share a data dir).
type DiskStorage struct {
	dataDir  string
	fileName string
	mu       sync.RWMutex
	lock     *flock.Flock
}

func NewDiskStorage(dataDir, fileName string) *DiskStorage {
	if fileName == "" {
		fileName = "slots.json"
	}

	return &DiskStorage{
		dataDir:  dataDir,
		fileName: fileName,
	}
}

func (d *DiskStorage) path() string {
	return filepath.Join(d.dataDir, d.fileName)
}

func (d *DiskStorage) Init() error {
	if err := os.MkdirAll(d.dataDir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	d.lock = flock.New(d.path() + ".lock")

	if _, err := d.readSlots(); err != nil {
		if err := d.quarantine(); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageInit, err)
		}
	}

	logger.Infof("Disk storage initialized at %s", d.path())
	return nil
}

// quarantine moves an unreadable slot file aside so a fresh one can start.
func (d *DiskStorage) quarantine() error {
	target := fmt.Sprintf("%s.corrupt-%d", d.path(), time.Now().Unix())
	if err := os.Rename(d.path(), target); err != nil {
		return err
	}
	logger.Warnf("Slot file %s is not valid JSON, moved to %s", d.path(), target)
	return nil
}

func (d *DiskStorage) readSlots() (map[string]string, error) {
	data, err := os.ReadFile(d.path())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	slots := map[string]string{}
	if len(data) == 0 {
		return slots, nil
	}
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	return slots, nil
}

func (d *DiskStorage) writeSlots(slots map[string]string) error {
	tempPath := d.path() + ".tmp"

	data, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	if err := os.Rename(tempPath, d.path()); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	return nil
}

func (d *DiskStorage) withLock(ctx context.Context, shared bool, fn func() error) error {
	if d.lock == nil {
		return fmt.Errorf("%w: storage not initialized", ErrFileOperation)
	}

	var (
		locked bool
		err    error
	)
	if shared {
		locked, err = d.lock.TryRLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = d.lock.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("%w: acquire lock: %v", ErrFileOperation, err)
	}
	if !locked {
		return fmt.Errorf("%w: slot file is locked by another process", ErrFileOperation)
	}
	defer d.lock.Unlock()

	return fn()
}

func (d *DiskStorage) Get(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var (
		value  string
		exists bool
	)
	err := d.withLock(ctx, true, func() error {
		slots, err := d.readSlots()
		if err != nil {
			return err
		}
		value, exists = slots[key]
		return nil
	})
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrKeyNotFound
	}

	return value, nil
}

func (d *DiskStorage) Set(ctx context.Context, key, value string) error {
	return d.update(ctx, func(slots map[string]string) {
		slots[key] = value
	})
}

func (d *DiskStorage) Delete(ctx context.Context, key string) error {
	return d.update(ctx, func(slots map[string]string) {
		delete(slots, key)
	})
}

func (d *DiskStorage) update(ctx context.Context, mutate func(map[string]string)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.withLock(ctx, false, func() error {
		slots, err := d.readSlots()
		if err != nil {
			return err
		}
		mutate(slots)
		return d.writeSlots(slots)
	})
}

func (d *DiskStorage) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lock == nil {
		return nil
	}
	return d.lock.Close()
}
