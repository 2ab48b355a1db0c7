package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/models"
)

// Redis caches streaks as JSON values with a TTL.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ StreakCache = (*Redis)(nil)

// RedisOptions configures NewRedis. Zero values fall back to the package defaults.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedis connects to addr and verifies the connection with a PING.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.Prefix == "" {
		opts.Prefix = constants.StreakCachePrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = constants.StreakCacheTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection to %s failed: %w", opts.Addr, err)
	}

	return &Redis{client: client, prefix: opts.Prefix, ttl: opts.TTL}, nil
}

func (r *Redis) key(habitID int64) string {
	return r.prefix + strconv.FormatInt(habitID, 10)
}

func (r *Redis) Get(ctx context.Context, habitID int64) (*models.Streak, bool, error) {
	val, err := r.client.Get(ctx, r.key(habitID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get failed: %w", err)
	}

	var s models.Streak
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return &s, true, nil
}

func (r *Redis) Set(ctx context.Context, s models.Streak) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return r.client.Set(ctx, r.key(s.HabitID), data, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, habitID int64) error {
	return r.client.Del(ctx, r.key(habitID)).Err()
}

// Flush deletes every key under the cache prefix.
func (r *Redis) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete keys failed: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
