// Package redis shares the travel cache between processes through Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kilianp07/fieldsched/core/logger"
	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/travel"
)

// DefaultPrefix namespaces every key.
const DefaultPrefix = "fieldsched:travel:"

// Cache implements travel.Cache. Redis errors count as misses so a broken
// cache only costs provider calls.
type Cache struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
	log    logger.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

var _ travel.Cache = (*Cache)(nil)

// New wraps an existing client. ttl <= 0 stores keys without expiry.
func New(rdb goredis.UniversalClient, prefix string, ttl time.Duration, log logger.Logger) *Cache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Cache{rdb: rdb, prefix: prefix, ttl: ttl, log: logger.OrNop(log)}
}

// Dial parses a redis:// URL and pings the server.
func Dial(ctx context.Context, url, prefix string, ttl time.Duration, log logger.Logger) (*Cache, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := goredis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return New(rdb, prefix, ttl, log), nil
}

func (c *Cache) driveKey(k string) string { return c.prefix + "drive:" + k }
func (c *Cache) geoKey(k string) string   { return c.prefix + "geo:" + k }

func (c *Cache) get(ctx context.Context, key string, v any) bool {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Debugf("redis get %s: %v", key, err)
		}
		c.misses.Add(1)
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		c.log.Warnf("redis decode %s: %v", key, err)
		c.misses.Add(1)
		return false
	}
	c.hits.Add(1)
	return true
}

func (c *Cache) set(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.log.Debugf("redis set %s: %v", key, err)
	}
}

func (c *Cache) GetDrive(ctx context.Context, key string) (travel.Drive, bool) {
	var d travel.Drive
	ok := c.get(ctx, c.driveKey(key), &d)
	return d, ok
}

// SetDrive ignores estimated drives.
func (c *Cache) SetDrive(ctx context.Context, key string, d travel.Drive) {
	if d.Estimated {
		return
	}
	c.set(ctx, c.driveKey(key), d)
}

func (c *Cache) GetCoordinates(ctx context.Context, address string) (model.Coordinates, bool) {
	var m model.Coordinates
	ok := c.get(ctx, c.geoKey(address), &m)
	return m, ok
}

func (c *Cache) SetCoordinates(ctx context.Context, address string, m model.Coordinates) {
	c.set(ctx, c.geoKey(address), m)
}

// Stats reports hits and misses seen by this process.
func (c *Cache) Stats() travel.CacheStats {
	return travel.CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Close closes the client.
func (c *Cache) Close() error { return c.rdb.Close() }
