// Package cache stores encoded snapshots and lookups with a TTL, either in
// Redis or in process.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrCacheMiss indicates the key was not found in cache
var ErrCacheMiss = errors.New("cache miss")

const keyPrefix = "wallet-aggregator:"

// Cache is a JSON value cache
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
	HealthCheck(ctx context.Context) error
}

// Key joins parts into a namespaced cache key. Addresses are lowercased by
// the caller.
func Key(parts ...string) string {
	return keyPrefix + strings.Join(parts, ":")
}
