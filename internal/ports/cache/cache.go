package cache

import (
	"context"
	"time"
)

// Cache is a disposable key-value view over the database. Values are
// JSON-encoded, so Get always decodes into a fresh copy.
type Cache interface {
	// Get decodes the value stored at key into dest. It reports false on a
	// miss or an expired entry.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}
