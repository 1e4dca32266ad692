package cache

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/boardview/internal/domain/oauth"
	"github.com/smallbiznis/boardview/internal/repository"
)

// MemoryTokenStore is a mutex-guarded in-process RequestTokenStore for
// single-instance deployments without Redis. Expired entries are treated as
// misses on read and reaped lazily.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	entries map[string]memoryTokenEntry
}

type memoryTokenEntry struct {
	token     oauth.RequestToken
	expiresAt time.Time
}

var _ repository.RequestTokenStore = (*MemoryTokenStore)(nil)

// NewMemoryTokenStore constructs an empty in-memory request token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{entries: make(map[string]memoryTokenEntry)}
}

// Save stores the token under its own id, replacing any previous record.
func (s *MemoryTokenStore) Save(_ context.Context, token oauth.RequestToken, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryTokenEntry{token: token}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.entries[token.Token] = entry
	return nil
}

// Get returns the live token for the id, or oauth.ErrTokenNotFound.
func (s *MemoryTokenStore) Get(_ context.Context, tokenID string) (*oauth.RequestToken, error) {
	s.mu.RLock()
	entry, ok := s.entries[tokenID]
	s.mu.RUnlock()
	if !ok {
		return nil, oauth.ErrTokenNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, tokenID)
		s.mu.Unlock()
		return nil, oauth.ErrTokenNotFound
	}
	token := entry.token
	return &token, nil
}

// Delete removes the record if present.
func (s *MemoryTokenStore) Delete(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, tokenID)
	return nil
}
