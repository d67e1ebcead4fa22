package indexstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iwvelando/loan-revision/pkg/loans"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// Cache is a byte-oriented key/value cache. Get reports a miss with
// found == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisCache implements Cache on a Redis server.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis server at addr.
func NewRedisCache(addr string) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{client: rdb}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Close closes the Redis connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// MapCache is an in-process Cache. TTLs are ignored.
type MapCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

// NewMapCache returns an empty MapCache.
func NewMapCache() *MapCache {
	return &MapCache{Data: make(map[string][]byte)}
}

func (m *MapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok, nil
}

func (m *MapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
	return nil
}

func (m *MapCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.Data, key)
	}
	return nil
}

type cachedPoint struct {
	DailyIndex  string `msgpack:"d"`
	Accumulated string `msgpack:"a"`
}

// CachedLookup serves daily lookups from a Cache before falling through to
// the wrapped lookup. Only hits are cached, so a point imported later is seen
// on the next miss; a point imported again must be dropped with Invalidate.
// Cache failures on the read path are logged and otherwise ignored.
type CachedLookup struct {
	next   loans.IndexLookup
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedLookup wraps next with cache.
func NewCachedLookup(next loans.IndexLookup, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedLookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedLookup{next: next, cache: cache, ttl: ttl, logger: logger}
}

func cacheKey(family loans.IndexFamily, date string) string {
	return fmt.Sprintf("loan-revision:daily:%s:%s", family, date)
}

// DailyIndex implements loans.IndexLookup.
func (c *CachedLookup) DailyIndex(ctx context.Context, family loans.IndexFamily, date string) (loans.IndexDailyPoint, bool, error) {
	key := cacheKey(family, date)

	raw, found, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("index cache read failed",
			zap.String("op", "indexstore.CachedLookup.DailyIndex"),
			zap.String("key", key),
			zap.Error(err),
		)
	} else if found {
		if point, ok := c.decode(family, date, raw); ok {
			return point, true, nil
		}
	}

	point, found, err := c.next.DailyIndex(ctx, family, date)
	if err != nil || !found {
		return point, found, err
	}

	encoded, err := msgpack.Marshal(cachedPoint{
		DailyIndex:  point.DailyIndex.String(),
		Accumulated: point.Accumulated.String(),
	})
	if err == nil {
		err = c.cache.Set(ctx, key, encoded, c.ttl)
	}
	if err != nil {
		c.logger.Warn("index cache write failed",
			zap.String("op", "indexstore.CachedLookup.DailyIndex"),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return point, true, nil
}

// invalidateBatch bounds the number of keys sent in one DEL.
const invalidateBatch = 500

// Invalidate drops the cached copies of points so the next lookup reads the
// rewritten values from the wrapped lookup.
func (c *CachedLookup) Invalidate(ctx context.Context, points []loans.IndexDailyPoint) error {
	keys := make([]string, 0, len(points))
	for _, p := range points {
		keys = append(keys, cacheKey(p.Family, p.Date))
	}
	for start := 0; start < len(keys); start += invalidateBatch {
		end := start + invalidateBatch
		if end > len(keys) {
			end = len(keys)
		}
		if err := c.cache.Delete(ctx, keys[start:end]...); err != nil {
			return fmt.Errorf("failed to invalidate cached indices: %w", err)
		}
	}
	c.logger.Debug(fmt.Sprintf("invalidated %d cached index points", len(keys)),
		zap.String("op", "indexstore.CachedLookup.Invalidate"),
	)
	return nil
}

func (c *CachedLookup) decode(family loans.IndexFamily, date string, raw []byte) (loans.IndexDailyPoint, bool) {
	var cp cachedPoint
	if err := msgpack.Unmarshal(raw, &cp); err != nil {
		c.logger.Warn("discarding undecodable cache entry",
			zap.String("op", "indexstore.CachedLookup.decode"),
			zap.Error(err),
		)
		return loans.IndexDailyPoint{}, false
	}
	daily, err1 := decimal.NewFromString(cp.DailyIndex)
	acc, err2 := decimal.NewFromString(cp.Accumulated)
	if err1 != nil || err2 != nil {
		return loans.IndexDailyPoint{}, false
	}
	return loans.IndexDailyPoint{Family: family, Date: date, DailyIndex: daily, Accumulated: acc}, true
}
