package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gomodule/oauth1/oauth"

	"github.com/smallbiznis/boardview/internal/config"
	domainoauth "github.com/smallbiznis/boardview/internal/domain/oauth"
)

// Client encapsulates the signed HTTP calls the flow manager and aggregator
// issue against the board provider. Implementations do not retry; retry
// policy belongs to callers.
type Client interface {
	FetchRequestToken(ctx context.Context) (*domainoauth.RequestToken, error)
	AuthorizationURL(tokenID string) string
	ExchangeAccessToken(ctx context.Context, reqToken *domainoauth.RequestToken, verifier string) (*domainoauth.AccessCredential, error)
	Get(ctx context.Context, cred *domainoauth.AccessCredential, path string, fields []string, out any) error
}

// HTTPClient is the default OAuth1-signed implementation.
type HTTPClient struct {
	oauthClient *oauth.Client
	httpClient  *http.Client
	callbackURL string
	apiBaseURL  string
	authParams  url.Values
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient constructs the provider client from deployment configuration.
// A nil http.Client falls back to the configured request timeout.
func NewHTTPClient(cfg config.Config, client *http.Client) *HTTPClient {
	if client == nil {
		timeout := cfg.RequestTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	authBase := strings.TrimRight(cfg.AuthBaseURL, "/")
	return &HTTPClient{
		oauthClient: &oauth.Client{
			Credentials: oauth.Credentials{
				Token:  cfg.ConsumerKey,
				Secret: cfg.ConsumerSecret,
			},
			TemporaryCredentialRequestURI: authBase + "/OAuthGetRequestToken",
			ResourceOwnerAuthorizationURI: authBase + "/OAuthAuthorizeToken",
			TokenRequestURI:               authBase + "/OAuthGetAccessToken",
		},
		httpClient:  client,
		callbackURL: cfg.CallbackURL,
		apiBaseURL:  strings.TrimRight(cfg.APIBaseURL, "/"),
		authParams: url.Values{
			"scope":      {cfg.AuthScope},
			"expiration": {cfg.AuthExpiration},
			"name":       {cfg.AppName},
		},
	}
}

// FetchRequestToken performs the unauthenticated request-token leg, signed
// only by the consumer pair.
func (c *HTTPClient) FetchRequestToken(ctx context.Context) (*domainoauth.RequestToken, error) {
	tmp, err := c.oauthClient.RequestTemporaryCredentialsContext(context.WithValue(ctx, oauth.HTTPClient, c.httpClient), c.callbackURL, nil)
	if err != nil {
		return nil, classifyTokenLegError(err)
	}
	if tmp.Token == "" || tmp.Secret == "" {
		return nil, &domainoauth.ProviderRejectedError{Body: "response missing oauth_token or oauth_token_secret"}
	}
	return &domainoauth.RequestToken{
		Token:     tmp.Token,
		Secret:    tmp.Secret,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// AuthorizationURL builds the redirect URL the end user is sent to. The
// scope, expiration, and name parameters come from deployment configuration.
func (c *HTTPClient) AuthorizationURL(tokenID string) string {
	return c.oauthClient.AuthorizationURL(&oauth.Credentials{Token: tokenID}, c.authParams)
}

// ExchangeAccessToken trades the pending request token plus verifier for the
// durable access credential.
func (c *HTTPClient) ExchangeAccessToken(ctx context.Context, reqToken *domainoauth.RequestToken, verifier string) (*domainoauth.AccessCredential, error) {
	tmp := &oauth.Credentials{Token: reqToken.Token, Secret: reqToken.Secret}
	cred, _, err := c.oauthClient.RequestTokenContext(context.WithValue(ctx, oauth.HTTPClient, c.httpClient), tmp, verifier)
	if err != nil {
		return nil, classifyTokenLegError(err)
	}
	if cred.Token == "" || cred.Secret == "" {
		return nil, &domainoauth.ProviderRejectedError{Body: "response missing oauth_token or oauth_token_secret"}
	}
	return &domainoauth.AccessCredential{Token: cred.Token, Secret: cred.Secret}, nil
}

// Get issues a signed GET against the API base and decodes the JSON response
// into out. The fields parameter trims the provider payload.
func (c *HTTPClient) Get(ctx context.Context, cred *domainoauth.AccessCredential, path string, fields []string, out any) error {
	form := url.Values{}
	if len(fields) > 0 {
		form.Set("fields", strings.Join(fields, ","))
	}
	urlStr := c.apiBaseURL + "/" + strings.TrimLeft(path, "/")

	resp, err := c.oauthClient.GetContext(context.WithValue(ctx, oauth.HTTPClient, c.httpClient), &oauth.Credentials{Token: cred.Token, Secret: cred.Secret}, urlStr, form)
	if err != nil {
		return &domainoauth.ProviderUnreachableError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &domainoauth.ProviderUnreachableError{Cause: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domainoauth.ProviderRejectedError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &domainoauth.ProviderRejectedError{StatusCode: resp.StatusCode, Body: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// classifyTokenLegError splits token-endpoint failures into the rejected and
// unreachable halves of the error taxonomy.
func classifyTokenLegError(err error) error {
	var rce oauth.RequestCredentialsError
	if errors.As(err, &rce) {
		return &domainoauth.ProviderRejectedError{StatusCode: rce.StatusCode, Body: string(rce.Body)}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return &domainoauth.ProviderUnreachableError{Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &domainoauth.ProviderUnreachableError{Cause: err}
	}
	// Anything else is a malformed or unexpected provider response.
	return &domainoauth.ProviderRejectedError{Body: err.Error()}
}
