package storage

import "context"

// Storage is a string-keyed slot store. Values are opaque strings; callers
// own their encoding.
type Storage interface {
	// Get returns ErrKeyNotFound when key has never been set.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	Init() error
	Close() error
}
