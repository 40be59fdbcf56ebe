// internal/notification/dedupe.go
// Markers that keep a recipient from being notified twice for the same event

package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Deduper records that a notification was sent
type Deduper interface {
	// MarkOnce sets the marker and reports whether it was newly set
	MarkOnce(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context, key string) error
}

type redisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper stores markers as Redis keys; ttl 0 keeps them forever
func NewRedisDeduper(client *redis.Client, ttl time.Duration) Deduper {
	return &redisDeduper{client: client, ttl: ttl}
}

func (d *redisDeduper) MarkOnce(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set notification marker: %w", err)
	}
	return ok, nil
}

func (d *redisDeduper) Clear(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear notification marker: %w", err)
	}
	return nil
}

type memoryDeduper struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewMemoryDeduper keeps markers in process memory
func NewMemoryDeduper() Deduper {
	return &memoryDeduper{keys: make(map[string]struct{})}
}

func (d *memoryDeduper) MarkOnce(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.keys[key]; ok {
		return false, nil
	}
	d.keys[key] = struct{}{}
	return true, nil
}

func (d *memoryDeduper) Clear(ctx context.Context, key string) error {
	d.mu.Lock()
	delete(d.keys, key)
	d.mu.Unlock()
	return nil
}
