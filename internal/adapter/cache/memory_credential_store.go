package cache

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/boardview/internal/domain/oauth"
	"github.com/smallbiznis/boardview/internal/repository"
)

// MemoryCredentialStore is the in-process CredentialStore counterpart to
// MemoryTokenStore.
type MemoryCredentialStore struct {
	mu      sync.RWMutex
	entries map[string]memoryCredentialEntry
}

type memoryCredentialEntry struct {
	cred      oauth.AccessCredential
	expiresAt time.Time
}

var _ repository.CredentialStore = (*MemoryCredentialStore)(nil)

// NewMemoryCredentialStore constructs an empty in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{entries: make(map[string]memoryCredentialEntry)}
}

// Set installs the credential for the session.
func (s *MemoryCredentialStore) Set(_ context.Context, sessionID string, cred oauth.AccessCredential, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryCredentialEntry{cred: cred}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.entries[sessionID] = entry
	return nil
}

// Get returns the session's credential, or oauth.ErrUnauthenticated.
func (s *MemoryCredentialStore) Get(_ context.Context, sessionID string) (*oauth.AccessCredential, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, oauth.ErrUnauthenticated
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, sessionID)
		s.mu.Unlock()
		return nil, oauth.ErrUnauthenticated
	}
	cred := entry.cred
	return &cred, nil
}

// Delete drops the session's credential.
func (s *MemoryCredentialStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}
