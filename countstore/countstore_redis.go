package countstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var redisCountPrefix string = "count/"

// RedisCountStore keeps one sorted set per (name, val), scored by event
// timestamp, so sliding-window counts are a single ZCOUNT.
type RedisCountStore struct {
	Client *redis.Client
}

func NewRedisCountStore(redisURL string) (*RedisCountStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	rcs := RedisCountStore{
		Client: rdb,
	}
	return &rcs, nil
}

func (s *RedisCountStore) Increment(ctx context.Context, name, val string) error {
	key := redisCountPrefix + eventKey(name, val)
	now := time.Now()

	// record, trim, and refresh expiry in a single redis round-trip
	multi := s.Client.Pipeline()
	multi.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	multi.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprint(now.Add(-Retention).UnixMilli()))
	multi.Expire(ctx, key, Retention)
	_, err := multi.Exec(ctx)
	return err
}

func (s *RedisCountStore) GetCountWithin(ctx context.Context, name, val string, window time.Duration) (int, error) {
	key := redisCountPrefix + eventKey(name, val)
	cutoff := time.Now().Add(-window).UnixMilli()
	// "(" makes the lower bound exclusive: an event exactly window-old is out
	c, err := s.Client.ZCount(ctx, key, fmt.Sprintf("(%d", cutoff), "+inf").Result()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return int(c), nil
}
