package stream

import (
	"context"
	"fmt"

	"sentiment-producer/internal/config"

	"github.com/redis/go-redis/v9"
)

// Redis appends records to a Redis Stream with XADD.
type Redis struct {
	rdb    *redis.Client
	key    string
	maxLen int64
}

// NewRedis creates a Redis Streams appender writing to key.
func NewRedis(key string, cfg config.RedisConfig) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisWithClient(rdb, key, cfg.MaxLen)
}

// NewRedisWithClient wraps an existing client. maxLen <= 0 disables trimming.
func NewRedisWithClient(rdb *redis.Client, key string, maxLen int64) *Redis {
	return &Redis{rdb: rdb, key: key, maxLen: maxLen}
}

func (r *Redis) Append(ctx context.Context, rec Record) error {
	args := &redis.XAddArgs{
		Stream: r.key,
		Values: map[string]any{
			"partition_key": rec.PartitionKey,
			"data":          rec.Data,
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	if err := r.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: xadd %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis) Describe(ctx context.Context) (Info, error) {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return Info{}, fmt.Errorf("redis: ping: %w", err)
	}
	n, err := r.rdb.XLen(ctx, r.key).Result()
	if err != nil {
		return Info{}, fmt.Errorf("redis: xlen %s: %w", r.key, err)
	}
	return Info{Backend: config.BackendRedis, Name: r.key, Status: "ACTIVE", Records: n}, nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
