package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKey = "gateway:bkash:token"

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type RedisStore struct {
	client *redis.Client
}

func (r *RedisStore) Get(ctx context.Context) (*GatewayToken, error) {
	data, err := r.client.Get(ctx, tokenKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var token GatewayToken
	if err2 := json.Unmarshal(data, &token); err2 != nil {
		return nil, fmt.Errorf("unmarshal token failed: %w", err2)
	}

	return &token, nil
}

func (r *RedisStore) Put(ctx context.Context, token *GatewayToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token failed: %w", err)
	}

	// The key dies with the token itself.
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("refusing to cache an already-expired token")
	}

	if err := r.client.Set(ctx, tokenKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
