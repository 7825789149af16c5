package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Darkatse/StatusHub/internal/ports/out"
)

// 缓存Key前缀，命名空间拼在前缀之后
const redisKeyPrefix = "statushub:cache:"

// RedisStore 网络缓存后端，TTL 由 Redis 自身管理，无需清扫
type RedisStore struct {
	client *redis.Client
}

// RedisOptions Redis 连接参数
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// NewRedis 建立连接并 ping 验证
func NewRedis(opts RedisOptions) (out.CacheStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) key(namespace, key string) string {
	return fmt.Sprintf("%s%s:%s", redisKeyPrefix, namespace, key)
}

func (s *RedisStore) Enabled() bool { return true }

func (s *RedisStore) GetJSON(ctx context.Context, namespace, key string, dest any) (bool, error) {
	raw, err := s.client.Get(ctx, s.key(namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get cache entry %s/%s: %w", namespace, key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("unmarshal cache value %s/%s: %w", namespace, key, err)
	}
	return true, nil
}

func (s *RedisStore) SetJSON(ctx context.Context, namespace, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value %s/%s: %w", namespace, key, err)
	}
	if ttl < 0 {
		ttl = 0 // 0 表示永不过期
	}
	if err := s.client.Set(ctx, s.key(namespace, key), string(raw), ttl).Err(); err != nil {
		return fmt.Errorf("set cache entry %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
