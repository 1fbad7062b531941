package detect

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper suppresses repeat detections of the same plate within a window.
// The camera re-reads a plate several times per second while a vehicle sits
// at the gate, and a vehicle that just entered must not re-trigger the entry
// flow for the cooldown period.
type Deduper interface {
	// Seen records the sighting and reports whether the plate was already
	// seen on that lane within the window.
	Seen(ctx context.Context, lane, plate string, window time.Duration) (bool, error)
}

// RedisDeduper implements Deduper with SET NX + TTL, so the window survives
// a controller restart.
type RedisDeduper struct {
	client *redis.Client
}

// NewRedisDeduper returns redis-backed deduper.
func NewRedisDeduper(client *redis.Client) *RedisDeduper {
	return &RedisDeduper{client: client}
}

func (d *RedisDeduper) key(lane, plate string) string {
	return fmt.Sprintf("detect:seen:%s:%s", lane, plate)
}

// Seen implements Deduper.
func (d *RedisDeduper) Seen(ctx context.Context, lane, plate string, window time.Duration) (bool, error) {
	set, err := d.client.SetNX(ctx, d.key(lane, plate), 1, window).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}

// MemoryDeduper is the in-process fallback used when no redis address is
// configured, and by tests.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

// NewMemoryDeduper returns empty deduper.
func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Seen implements Deduper.
func (d *MemoryDeduper) Seen(ctx context.Context, lane, plate string, window time.Duration) (bool, error) {
	key := lane + ":" + plate
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	for k, expiry := range d.seen {
		if now.After(expiry) {
			delete(d.seen, k)
		}
	}

	if expiry, ok := d.seen[key]; ok && now.Before(expiry) {
		return true, nil
	}
	d.seen[key] = now.Add(window)
	return false, nil
}
