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

const sessionCredentialPrefix = "session:cred:"

// RedisCredentialStore holds per-session access credentials in Redis. The
// credential is keyed by an opaque session id, never by anything the provider
// issued, so it stays out of the shared request-token keyspace.
type RedisCredentialStore struct {
	client redis.UniversalClient
}

var _ repository.CredentialStore = (*RedisCredentialStore)(nil)

// NewRedisCredentialStore constructs a Redis-backed credential store.
func NewRedisCredentialStore(client redis.UniversalClient) *RedisCredentialStore {
	return &RedisCredentialStore{client: client}
}

// Set installs the credential for the session, replacing any previous one.
func (s *RedisCredentialStore) Set(ctx context.Context, sessionID string, cred oauth.AccessCredential, ttl time.Duration) error {
	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	if err := s.client.Set(ctx, sessionCredentialPrefix+sessionID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	return nil
}

// Get returns the session's credential, or oauth.ErrUnauthenticated.
func (s *RedisCredentialStore) Get(ctx context.Context, sessionID string) (*oauth.AccessCredential, error) {
	bytes, err := s.client.Get(ctx, sessionCredentialPrefix+sessionID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, oauth.ErrUnauthenticated
		}
		return nil, fmt.Errorf("load credential: %w", err)
	}
	var cred oauth.AccessCredential
	if err := json.Unmarshal(bytes, &cred); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	return &cred, nil
}

// Delete drops the session's credential on logout or expiry.
func (s *RedisCredentialStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionCredentialPrefix+sessionID).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
