package redisx

import (
	"context"
	"github.com/redis/go-redis/v9"
	"time"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Ping(ctx context.Context, rdb *redis.Client) error {
	return rdb.Ping(ctx).Err()
}

// Deduper remembers processed ids with SETNX.
type Deduper struct {
	Client  *redis.Client
	Service string
	TTL     time.Duration
}

// First reports whether id is seen for the first time, and marks it seen.
func (d *Deduper) First(ctx context.Context, id string) (bool, error) {
	ttl := d.TTL
	if ttl <= 0 {
		ttl = TTLDedup
	}
	return d.Client.SetNX(ctx, dedupKey(d.Service, id), "1", ttl).Result()
}

// Forget clears a dedup mark so a failed event can be retried.
func (d *Deduper) Forget(ctx context.Context, id string) error {
	return d.Client.Del(ctx, dedupKey(d.Service, id)).Err()
}
