// FilePath: internal/repository/cache/cache.redis.go
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	keyPrefix  = "dohub"
	scanBatch  = 100
	kindLatest = "latest"
)

// Config holds the redis connection and expiry settings
type Config struct {
	Addr      string
	Password  string
	DB        int
	LatestTTL time.Duration
	StatsTTL  time.Duration
}

// RedisCache keeps the newest reading per sensor and short-lived aggregate
// responses. Values are msgpack encoded.
type RedisCache struct {
	client *redis.Client
	config Config
}

func NewRedisCache(ctx context.Context, config Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.NewUnavailableError("failed to connect to redis", err)
	}
	nuts.L.Infof("[RedisCache] Connected to %s/%d", config.Addr, config.DB)
	return &RedisCache{client: client, config: config}, nil
}

// Key builds a cache key scoped to a sensor. The parts are hashed so arbitrary
// query values stay out of the key space.
func Key(kind, sensorID string, parts ...string) string {
	if len(parts) == 0 {
		return fmt.Sprintf("%s:%s:%s:_", keyPrefix, kind, sensorID)
	}
	h := xxhash.New()
	for _, part := range parts {
		h.WriteString(part)
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, kind, sensorID, strconv.FormatUint(h.Sum64(), 16))
}

func (c *RedisCache) SetLatest(ctx context.Context, reading *models.Reading) error {
	return c.set(ctx, Key(kindLatest, reading.SensorID), reading, c.config.LatestTTL)
}

func (c *RedisCache) GetLatest(ctx context.Context, sensorID string) (*models.Reading, error) {
	reading := &models.Reading{}
	found, err := c.Get(ctx, Key(kindLatest, sensorID), reading)
	if err != nil || !found {
		return nil, err
	}
	return reading, nil
}

// Set stores an aggregate response for the stats TTL
func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	return c.set(ctx, key, value, c.config.StatsTTL)
}

// Get decodes the value at key into dst and reports whether it was present
func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.NewUnavailableError("failed to read cache", err)
	}
	if err := msgpack.Unmarshal(raw, dst); err != nil {
		// a stale encoding is a miss, not a failure
		nuts.L.Warnf("[RedisCache] Dropping undecodable entry %s: %v", key, err)
		c.client.Del(ctx, key)
		return false, nil
	}
	return true, nil
}

// InvalidateSensor drops every entry scoped to the sensor
func (c *RedisCache) InvalidateSensor(ctx context.Context, sensorID string) error {
	pattern := fmt.Sprintf("%s:*:%s:*", keyPrefix, sensorID)
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return errors.NewUnavailableError("failed to scan cache", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return errors.NewUnavailableError("failed to invalidate cache", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := msgpack.Marshal(value)
	if err != nil {
		return errors.NewInternalError("failed to encode cache entry", err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return errors.NewUnavailableError("failed to write cache", err)
	}
	return nil
}
