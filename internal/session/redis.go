package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore keeps sessions in redis so they survive restarts and are shared
// between instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisClient creates a redis client for the given address.
func NewRedisClient(addr, password string) (*redis.Client, func() error) {
	if !strings.Contains(addr, ":") {
		addr = addr + ":6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	return client, client.Close
}

// NewRedisStore creates a session store over the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, token string, p Principal, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+token, encodePrincipal(p), ttl).Err(); err != nil {
		return fmt.Errorf("can't store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, token string) (Principal, error) {
	val, err := s.client.Get(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return Principal{}, ErrNotFound
	}
	if err != nil {
		return Principal{}, fmt.Errorf("can't load session: %w", err)
	}

	return decodePrincipal(val)
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("can't delete session: %w", err)
	}
	return nil
}
