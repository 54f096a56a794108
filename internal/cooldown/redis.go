package cooldown

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "jukebox:cooldown:"

// RedisStore keeps last add times in Redis as Unix milliseconds.
//
// Keys expire after the window, once they can no longer block anyone, so the keyspace stays bounded by the
// number of visitors active within one window.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client. ttl is normally the tracker window; zero keeps keys forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient connects to the configured Redis server and pings it.
func NewRedisClient(ctx context.Context, cfg shared.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis at %s: %v", shared.ErrServiceUnavailable, cfg.Addr, err)
	}
	return client, nil
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

func (s *RedisStore) LastAdd(ctx context.Context, userID string) (time.Time, error) {
	val, err := s.client.Get(ctx, redisKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get cooldown: %w", err)
	}

	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed cooldown value %q: %w", val, err)
	}
	return time.UnixMilli(ms), nil
}

func (s *RedisStore) Record(ctx context.Context, userID string, at time.Time) error {
	if err := s.client.Set(ctx, redisKey(userID), at.UnixMilli(), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cooldown: %w", err)
	}
	return nil
}
