package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingParameter indicates a blank token id or verifier on the callback.
	ErrMissingParameter = errors.New("oauth: missing parameter")
	// ErrUnknownToken indicates the presented token id was never issued,
	// already consumed, or expired.
	ErrUnknownToken = errors.New("oauth: unknown request token")
	// ErrTokenMismatch indicates the stored record's own id differs from the
	// id it was looked up under.
	ErrTokenMismatch = errors.New("oauth: request token mismatch")
	// ErrTokenNotFound is the store-level miss. The flow manager maps it to
	// ErrUnknownToken at its boundary.
	ErrTokenNotFound = errors.New("oauth: request token not found")
	// ErrUnauthenticated indicates the session holds no access credential.
	ErrUnauthenticated = errors.New("oauth: not authenticated")
)

// ProviderRejectedError carries the provider's non-success status and body so
// callers can distinguish unauthorized, not-found, and rate-limit responses.
type ProviderRejectedError struct {
	StatusCode int
	Body       string
}

func (e *ProviderRejectedError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("oauth: provider rejected request: %s", e.Body)
	}
	return fmt.Sprintf("oauth: provider rejected request: status=%d body=%q", e.StatusCode, e.Body)
}

// ProviderUnreachableError wraps network-level failures and timeouts. These
// are the only provider errors eligible for caller-side retry.
type ProviderUnreachableError struct {
	Cause error
}

func (e *ProviderUnreachableError) Error() string {
	return fmt.Sprintf("oauth: provider unreachable: %v", e.Cause)
}

func (e *ProviderUnreachableError) Unwrap() error {
	return e.Cause
}
