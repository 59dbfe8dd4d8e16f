// Package cache stores raw upstream payloads for a bounded interval so that
// refresh cycles and dashboard requests do not refetch inside the TTL.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Store defines payload cache operations.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// GenerateKey creates a cache key from a prefix and its parameters.
func GenerateKey(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key = fmt.Sprintf("%s:%v", key, param)
	}
	return key
}
