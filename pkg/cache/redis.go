package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores JSON-encoded values under a namespaced prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

type RedisOption func(*redisOptions)

type redisOptions struct {
	host     string
	port     int
	password string
	db       int
	poolSize int
	prefix   string
}

func WithRedisHost(host string) RedisOption {
	return func(o *redisOptions) { o.host = host }
}

func WithRedisPort(port int) RedisOption {
	return func(o *redisOptions) { o.port = port }
}

func WithRedisPassword(password string) RedisOption {
	return func(o *redisOptions) { o.password = password }
}

func WithRedisDB(db int) RedisOption {
	return func(o *redisOptions) { o.db = db }
}

func WithRedisPoolSize(size int) RedisOption {
	return func(o *redisOptions) { o.poolSize = size }
}

func WithRedisPrefix(prefix string) RedisOption {
	return func(o *redisOptions) { o.prefix = prefix }
}

func NewRedisCache(opts ...RedisOption) (*RedisCache, error) {
	options := &redisOptions{
		host:     "localhost",
		port:     6379,
		poolSize: 10,
		prefix:   "trisight",
	}
	for _, opt := range opts {
		opt(options)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", options.host, options.port),
		Password: options.password,
		DB:       options.db,
		PoolSize: options.poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{client: client, prefix: options.prefix}, nil
}

func (r *RedisCache) key(key string) string {
	return r.prefix + ":" + key
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return r.client.Set(ctx, r.key(key), data, ttl).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	return n > 0, err
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
