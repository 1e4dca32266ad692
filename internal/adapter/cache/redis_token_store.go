package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallbiznis/boardview/internal/domain/oauth"
	"github.com/smallbiznis/boardview/internal/repository"
)

const requestTokenPrefix = "oauth:request:"

// RedisTokenStore implements RequestTokenStore backed by Redis. The TTL keeps
// abandoned logins from accumulating; it must exceed the time a user needs to
// authorize at the provider.
type RedisTokenStore struct {
	client redis.UniversalClient
}

var _ repository.RequestTokenStore = (*RedisTokenStore)(nil)

// NewRedisTokenStore constructs a Redis-backed request token store.
func NewRedisTokenStore(client redis.UniversalClient) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

// Save stores the encoded request token under its provider-assigned id.
func (s *RedisTokenStore) Save(ctx context.Context, token oauth.RequestToken, ttl time.Duration) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal request token: %w", err)
	}
	if err := s.client.Set(ctx, requestTokenPrefix+token.Token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist request token: %w", err)
	}
	return nil
}

// Get loads and decodes the pending token for the given id.
func (s *RedisTokenStore) Get(ctx context.Context, tokenID string) (*oauth.RequestToken, error) {
	bytes, err := s.client.Get(ctx, requestTokenPrefix+tokenID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, oauth.ErrTokenNotFound
		}
		return nil, fmt.Errorf("load request token: %w", err)
	}
	var token oauth.RequestToken
	if err := json.Unmarshal(bytes, &token); err != nil {
		return nil, fmt.Errorf("decode request token: %w", err)
	}
	return &token, nil
}

// Delete removes the consumed token. Absence is not an error.
func (s *RedisTokenStore) Delete(ctx context.Context, tokenID string) error {
	if err := s.client.Del(ctx, requestTokenPrefix+tokenID).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("delete request token: %w", err)
	}
	return nil
}
