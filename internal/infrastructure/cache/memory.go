package cache

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is the in-process Cache used when Redis is disabled. Values are
// stored encoded so callers never share mutable state with the cache.
type MemoryCache struct {
	store *gocache.Cache
	ttl   time.Duration
}

// NewMemoryCache creates an in-process cache with a default TTL
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		store: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Get decodes the value at key into dest
func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	v, ok := c.store.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(v.([]byte), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	return nil
}

// Set stores value with the default TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores value with a custom TTL
func (c *MemoryCache) SetWithTTL(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	c.store.Set(key, data, ttl)
	return nil
}

// Delete removes a value from cache
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// DeletePattern removes all keys matching a Redis MATCH style pattern.
// Only * and ? are special; both also match '/'.
func (c *MemoryCache) DeletePattern(_ context.Context, pattern string) error {
	re, err := globRegexp(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	for key := range c.store.Items() {
		if re.MatchString(key) {
			c.store.Delete(key)
		}
	}
	return nil
}

func globRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// HealthCheck always succeeds
func (c *MemoryCache) HealthCheck(context.Context) error {
	return nil
}
