package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisKV maps the KV contract onto Redis: Put/Get use plain string keys,
// Append/GetLog use a list per key. Keys are namespaced as
// "clearpath:<namespace>:<key>".
type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func redisKey(namespace, key string) string {
	return "clearpath:" + namespace + ":" + key
}

func (s *RedisKV) Put(ctx context.Context, namespace, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", namespace, key, err)
	}
	return s.client.Set(ctx, redisKey(namespace, key), raw, 0).Err()
}

func (s *RedisKV) Append(ctx context.Context, namespace, key string, entry any) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", namespace, key, err)
	}
	return s.client.RPush(ctx, redisKey(namespace, key), raw).Err()
}

func (s *RedisKV) Get(ctx context.Context, namespace, key string, out any) error {
	raw, err := s.client.Get(ctx, redisKey(namespace, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("redis get %s/%s: %w", namespace, key, err)
	}
	return json.Unmarshal(raw, out)
}

func (s *RedisKV) GetLog(ctx context.Context, namespace, key string, out any) error {
	entries, err := s.client.LRange(ctx, redisKey(namespace, key), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("redis lrange %s/%s: %w", namespace, key, err)
	}
	if len(entries) == 0 {
		return ErrNotFound
	}
	raws := make([]json.RawMessage, 0, len(entries))
	for _, entry := range entries {
		raws = append(raws, json.RawMessage(entry))
	}
	combined, err := json.Marshal(raws)
	if err != nil {
		return err
	}
	return json.Unmarshal(combined, out)
}
