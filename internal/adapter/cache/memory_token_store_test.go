package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smallbiznis/boardview/internal/domain/oauth"
)

func TestMemoryTokenStore_GetUnknown(t *testing.T) {
	store := NewMemoryTokenStore()
	_, err := store.Get(context.Background(), "never-saved")
	require.ErrorIs(t, err, oauth.ErrTokenNotFound)
}

func TestMemoryTokenStore_SaveGet(t *testing.T) {
	store := NewMemoryTokenStore()
	ctx := context.Background()

	token := oauth.RequestToken{Token: "token-1", Secret: "secret-1", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Save(ctx, token, time.Minute))

	got, err := store.Get(ctx, "token-1")
	require.NoError(t, err)
	require.Equal(t, "secret-1", got.Secret)
}

func TestMemoryTokenStore_Expiry(t *testing.T) {
	store := NewMemoryTokenStore()
	ctx := context.Background()

	token := oauth.RequestToken{Token: "token-1", Secret: "secret-1"}
	require.NoError(t, store.Save(ctx, token, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := store.Get(ctx, "token-1")
	require.ErrorIs(t, err, oauth.ErrTokenNotFound)
}

func TestMemoryTokenStore_DeleteIsIdempotent(t *testing.T) {
	store := NewMemoryTokenStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, oauth.RequestToken{Token: "token-1", Secret: "s"}, time.Minute))
	require.NoError(t, store.Delete(ctx, "token-1"))
	require.NoError(t, store.Delete(ctx, "token-1"))

	_, err := store.Get(ctx, "token-1")
	require.ErrorIs(t, err, oauth.ErrTokenNotFound)
}

func TestMemoryTokenStore_ConcurrentLoginsDoNotCrossContaminate(t *testing.T) {
	store := NewMemoryTokenStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("token-%d", i)
			_ = store.Save(ctx, oauth.RequestToken{Token: id, Secret: "secret-" + id}, time.Minute)
		}()
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("token-%d", i)
		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "secret-"+id, got.Secret)
	}
}

func TestMemoryCredentialStore_Lifecycle(t *testing.T) {
	store := NewMemoryCredentialStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "session-1")
	require.ErrorIs(t, err, oauth.ErrUnauthenticated)

	cred := oauth.AccessCredential{Token: "access", Secret: "secret"}
	require.NoError(t, store.Set(ctx, "session-1", cred, time.Minute))

	got, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	require.Equal(t, cred, *got)

	require.NoError(t, store.Delete(ctx, "session-1"))
	_, err = store.Get(ctx, "session-1")
	require.ErrorIs(t, err, oauth.ErrUnauthenticated)
}
