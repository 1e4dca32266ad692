package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/boardview/internal/domain/oauth"
)

// RequestTokenStore persists in-flight request tokens between the
// request-token leg and the provider callback. Entries are keyed by the
// provider-assigned token id; concurrent logins never touch each other's
// records. Save overwrites an existing record for the same id — ids are
// provider-assigned and unique per issuance, so an overwrite can only replay
// the same login attempt.
type RequestTokenStore interface {
	Save(ctx context.Context, token oauth.RequestToken, ttl time.Duration) error
	// Get returns oauth.ErrTokenNotFound when no live record exists for the
	// id (unknown, consumed, or expired).
	Get(ctx context.Context, tokenID string) (*oauth.RequestToken, error)
	// Delete is best-effort; a missing record is not an error.
	Delete(ctx context.Context, tokenID string) error
}

// CredentialStore associates an access credential with a caller session.
// Lookups for unknown sessions return oauth.ErrUnauthenticated.
type CredentialStore interface {
	Set(ctx context.Context, sessionID string, cred oauth.AccessCredential, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*oauth.AccessCredential, error)
	Delete(ctx context.Context, sessionID string) error
}
