package simstate

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "stocksim:state"

// RedisConfig holds connection parameters for the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisStore keeps the saved document under a single Redis key.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.Key == "" {
		cfg.Key = defaultRedisKey
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	return &RedisStore{rdb: rdb, key: cfg.Key}, nil
}

// Key returns the Redis key holding the save.
func (s *RedisStore) Key() string {
	return s.key
}

// Load reads the saved document. A missing key yields (nil, nil).
func (s *RedisStore) Load(ctx context.Context) (*State, error) {
	payload, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read simulate state from redis key %s", s.key)
	}

	return Decode(payload)
}

// Save overwrites the saved document.
func (s *RedisStore) Save(ctx context.Context, state State) error {
	payload, err := Encode(state)
	if err != nil {
		return err
	}

	if err := s.rdb.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return errors.Wrapf(err, "write simulate state to redis key %s", s.key)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
