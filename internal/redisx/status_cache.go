package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/redis/go-redis/v9"
	"time"
)

type CachedStatus struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
	// Version is UpdatedAt in unix microseconds, compared inside Redis.
	Version int64 `json:"version"`
}

// setIfNewer writes ARGV[1] unless the stored entry carries a higher version.
var setIfNewer = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
  local ok, doc = pcall(cjson.decode, cur)
  if ok and type(doc) == 'table' then
    local v = tonumber(doc.version)
    if v and v > tonumber(ARGV[2]) then
      return 0
    end
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

type StatusCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func (c *StatusCache) ttl() time.Duration {
	if c.TTL <= 0 {
		return TTLStatusCache
	}
	return c.TTL
}

// SetStatus stores s unless the cache already holds a later update for the order.
// The check and the write happen in one script, so concurrent writers cannot
// move the entry backwards.
func (c *StatusCache) SetStatus(ctx context.Context, s CachedStatus) error {
	_, err := c.SetIfNewer(ctx, s)
	return err
}

// SetIfNewer is SetStatus that also reports whether the entry was written.
func (c *StatusCache) SetIfNewer(ctx context.Context, s CachedStatus) (bool, error) {
	s.Version = s.UpdatedAt.UnixMicro()
	b, err := json.Marshal(s)
	if err != nil {
		return false, err
	}
	n, err := setIfNewer.Run(ctx, c.Client, []string{statusKey(s.OrderID)}, b, s.Version, c.ttl().Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetStatus returns ok=false on a cache miss.
func (c *StatusCache) GetStatus(ctx context.Context, orderID string) (CachedStatus, bool, error) {
	raw, err := c.Client.Get(ctx, statusKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return CachedStatus{}, false, nil
	}
	if err != nil {
		return CachedStatus{}, false, err
	}
	var s CachedStatus
	if err := json.Unmarshal(raw, &s); err != nil {
		return CachedStatus{}, false, err
	}
	return s, true, nil
}
