package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"taskchat-backend/internal/config"
	"taskchat-backend/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "taskchat:"

// RedisStorage stores each slot as a plain redis string under a prefixed
// key. With embedded set it runs its own miniredis server, which suits local
// single-user setups that want the redis code path without a daemon.
type RedisStorage struct {
	cfg      config.RedisConfig
	embedded bool
	client   *redis.Client
	mini     *miniredis.Miniredis
	mu       sync.RWMutex
}

func NewRedisStorage(cfg config.RedisConfig) *RedisStorage {
	return &RedisStorage{cfg: cfg}
}

func NewMiniRedisStorage() *RedisStorage {
	return &RedisStorage{embedded: true}
}

func (r *RedisStorage) Init() error {
	options := &redis.Options{
		Addr:     r.cfg.Address,
		Username: r.cfg.Username,
		Password: r.cfg.Password,
		DB:       r.cfg.DB,
	}

	if r.embedded {
		mini, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("%w: start miniredis: %v", ErrStorageInit, err)
		}
		r.mu.Lock()
		r.mini = mini
		r.mu.Unlock()
		options = &redis.Options{Addr: mini.Addr()}
	}

	client := redis.NewClient(options)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		r.Close()
		return fmt.Errorf("%w: ping redis %s: %v", ErrStorageInit, options.Addr, err)
	}

	r.mu.Lock()
	r.client = client
	r.mu.Unlock()

	logger.Infof("Redis storage initialized at %s", options.Addr)
	return nil
}

// conn returns the live client. Callers hold r.mu.
func (r *RedisStorage) conn() (*redis.Client, error) {
	if r.client == nil {
		return nil, fmt.Errorf("%w: storage not initialized", ErrStorageInit)
	}
	return r.client, nil
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, err := r.conn()
	if err != nil {
		return "", err
	}

	value, err := client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (r *RedisStorage) Set(ctx context.Context, key, value string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, err := r.conn()
	if err != nil {
		return err
	}

	if err := client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, err := r.conn()
	if err != nil {
		return err
	}

	if err := client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.client != nil {
		err = r.client.Close()
		r.client = nil
	}
	if r.mini != nil {
		r.mini.Close()
		r.mini = nil
	}
	return err
}
