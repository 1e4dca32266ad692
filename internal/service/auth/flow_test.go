package auth

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smallbiznis/boardview/internal/adapter/cache"
	"github.com/smallbiznis/boardview/internal/config"
	domainoauth "github.com/smallbiznis/boardview/internal/domain/oauth"
	"github.com/smallbiznis/boardview/internal/repository"
)

func TestFlowService_BeginLogin(t *testing.T) {
	h := newFlowTestHarness()
	ctx := context.Background()

	redirectURL, err := h.service.BeginLogin(ctx)
	require.NoError(t, err)
	require.Contains(t, redirectURL, "oauth_token=req-token-1")

	stored, err := h.tokenStore.Get(ctx, "req-token-1")
	require.NoError(t, err)
	require.Equal(t, "req-secret-1", stored.Secret)
}

func TestFlowService_BeginLogin_ProviderRejected(t *testing.T) {
	h := newFlowTestHarness()
	h.provider.requestTokenErr = &domainoauth.ProviderRejectedError{Body: "response missing oauth_token or oauth_token_secret"}
	ctx := context.Background()

	_, err := h.service.BeginLogin(ctx)
	var rejected *domainoauth.ProviderRejectedError
	require.ErrorAs(t, err, &rejected)

	// A failed request-token leg must leave no trace in the store.
	_, err = h.tokenStore.Get(ctx, "req-token-1")
	require.ErrorIs(t, err, domainoauth.ErrTokenNotFound)
}

func TestFlowService_CompleteLogin_MissingParameter(t *testing.T) {
	h := newFlowTestHarness()
	ctx := context.Background()

	_, err := h.service.CompleteLogin(ctx, "", "verifier")
	require.ErrorIs(t, err, domainoauth.ErrMissingParameter)

	_, err = h.service.CompleteLogin(ctx, "req-token-1", "  ")
	require.ErrorIs(t, err, domainoauth.ErrMissingParameter)

	// Invalid input never reaches the provider.
	require.Zero(t, h.provider.exchangeCalls)
}

func TestFlowService_CompleteLogin_UnknownToken(t *testing.T) {
	h := newFlowTestHarness()

	_, err := h.service.CompleteLogin(context.Background(), "never-issued", "verifier")
	require.ErrorIs(t, err, domainoauth.ErrUnknownToken)
	require.Zero(t, h.provider.exchangeCalls)
}

func TestFlowService_CompleteLogin_TokenMismatch(t *testing.T) {
	h := newFlowTestHarness()
	// A store keyed differently from the record's own id is the only way the
	// integrity assertion can fire.
	h.service = NewFlowService(&miskeyedStore{}, h.provider, h.cfg, zap.NewNop())

	_, err := h.service.CompleteLogin(context.Background(), "req-token-1", "verifier")
	require.ErrorIs(t, err, domainoauth.ErrTokenMismatch)
	require.Zero(t, h.provider.exchangeCalls)
}

func TestFlowService_RoundTrip(t *testing.T) {
	h := newFlowTestHarness()
	ctx := context.Background()

	redirectURL, err := h.service.BeginLogin(ctx)
	require.NoError(t, err)
	require.True(t, strings.Contains(redirectURL, "oauth_token=req-token-1"))

	cred, err := h.service.CompleteLogin(ctx, "req-token-1", "verifier-1")
	require.NoError(t, err)
	require.NotEmpty(t, cred.Token)
	require.NotEmpty(t, cred.Secret)

	// The consumed token is single-use.
	_, err = h.service.CompleteLogin(ctx, "req-token-1", "verifier-1")
	require.ErrorIs(t, err, domainoauth.ErrUnknownToken)
}

func TestFlowService_CompleteLogin_ExchangeRejected(t *testing.T) {
	h := newFlowTestHarness()
	ctx := context.Background()

	_, err := h.service.BeginLogin(ctx)
	require.NoError(t, err)

	h.provider.exchangeErr = &domainoauth.ProviderRejectedError{StatusCode: 401, Body: "invalid verifier"}
	_, err = h.service.CompleteLogin(ctx, "req-token-1", "bad-verifier")
	var rejected *domainoauth.ProviderRejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, 401, rejected.StatusCode)
}

// ---- Test harness and fakes ----

type flowTestHarness struct {
	service    FlowService
	tokenStore repository.RequestTokenStore
	provider   *fakeProviderClient
	cfg        config.Config
}

func newFlowTestHarness() *flowTestHarness {
	tokenStore := cache.NewMemoryTokenStore()
	providerClient := &fakeProviderClient{
		requestToken: &domainoauth.RequestToken{
			Token:     "req-token-1",
			Secret:    "req-secret-1",
			CreatedAt: time.Now().UTC(),
		},
		credential: &domainoauth.AccessCredential{
			Token:  "access-token-1",
			Secret: "access-secret-1",
		},
	}
	cfg := config.Config{RequestTokenTTL: 10 * time.Minute}
	return &flowTestHarness{
		service:    NewFlowService(tokenStore, providerClient, cfg, zap.NewNop()),
		tokenStore: tokenStore,
		provider:   providerClient,
		cfg:        cfg,
	}
}

type fakeProviderClient struct {
	requestToken    *domainoauth.RequestToken
	requestTokenErr error
	credential      *domainoauth.AccessCredential
	exchangeErr     error
	exchangeCalls   int
}

func (f *fakeProviderClient) FetchRequestToken(context.Context) (*domainoauth.RequestToken, error) {
	if f.requestTokenErr != nil {
		return nil, f.requestTokenErr
	}
	token := *f.requestToken
	return &token, nil
}

func (f *fakeProviderClient) AuthorizationURL(tokenID string) string {
	return "https://provider.example/authorize?oauth_token=" + tokenID
}

func (f *fakeProviderClient) ExchangeAccessToken(_ context.Context, reqToken *domainoauth.RequestToken, verifier string) (*domainoauth.AccessCredential, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	if reqToken.Secret == "" || verifier == "" {
		return nil, fmt.Errorf("exchange called without secret or verifier")
	}
	cred := *f.credential
	return &cred, nil
}

func (f *fakeProviderClient) Get(context.Context, *domainoauth.AccessCredential, string, []string, any) error {
	return fmt.Errorf("not implemented")
}

// miskeyedStore returns a record whose own id differs from the lookup key.
type miskeyedStore struct{}

func (s *miskeyedStore) Save(context.Context, domainoauth.RequestToken, time.Duration) error {
	return nil
}

func (s *miskeyedStore) Get(context.Context, string) (*domainoauth.RequestToken, error) {
	return &domainoauth.RequestToken{Token: "some-other-token", Secret: "secret"}, nil
}

func (s *miskeyedStore) Delete(context.Context, string) error {
	return nil
}
