package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/smallbiznis/boardview/internal/adapter/provider"
	"github.com/smallbiznis/boardview/internal/config"
	domainoauth "github.com/smallbiznis/boardview/internal/domain/oauth"
	"github.com/smallbiznis/boardview/internal/repository"
)

// FlowService drives the three-legged handshake: request-token issuance,
// authorization redirect, and the verifier-for-access-token exchange.
type FlowService interface {
	BeginLogin(ctx context.Context) (string, error)
	CompleteLogin(ctx context.Context, tokenID, verifier string) (*domainoauth.AccessCredential, error)
}

type flowService struct {
	tokenStore repository.RequestTokenStore
	provider   provider.Client
	cfg        config.Config
	logger     *zap.Logger
}

// NewFlowService wires the flow manager implementation.
func NewFlowService(tokenStore repository.RequestTokenStore, providerClient provider.Client, cfg config.Config, logger *zap.Logger) FlowService {
	return &flowService{
		tokenStore: tokenStore,
		provider:   providerClient,
		cfg:        cfg,
		logger:     logger,
	}
}

// BeginLogin obtains a request token, persists it for the callback, and
// returns the provider authorization URL to redirect the end user to.
// Nothing is written to the store when the provider leg fails.
func (s *flowService) BeginLogin(ctx context.Context) (string, error) {
	reqToken, err := s.provider.FetchRequestToken(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch request token: %w", err)
	}

	if err := s.tokenStore.Save(ctx, *reqToken, s.cfg.RequestTokenTTL); err != nil {
		return "", fmt.Errorf("persist request token: %w", err)
	}

	s.log().Info("login started", zap.String("token_id", reqToken.Token))
	return s.provider.AuthorizationURL(reqToken.Token), nil
}

// CompleteLogin validates the callback parameters against the pending token
// record, exchanges the verifier for an access credential, and consumes the
// request token so it cannot be replayed.
func (s *flowService) CompleteLogin(ctx context.Context, tokenID, verifier string) (*domainoauth.AccessCredential, error) {
	tokenID = strings.TrimSpace(tokenID)
	verifier = strings.TrimSpace(verifier)
	if tokenID == "" || verifier == "" {
		return nil, domainoauth.ErrMissingParameter
	}

	stored, err := s.tokenStore.Get(ctx, tokenID)
	if err != nil {
		if errors.Is(err, domainoauth.ErrTokenNotFound) {
			s.log().Warn("callback with unknown request token", zap.String("token_id", tokenID))
			return nil, domainoauth.ErrUnknownToken
		}
		return nil, fmt.Errorf("load request token: %w", err)
	}

	// Belt and suspenders: with a keyed lookup the ids can only differ if the
	// storage layer is ever re-keyed. Logged as a forgery signal regardless.
	if stored.Token != tokenID {
		s.log().Warn("callback token id does not match stored record",
			zap.String("token_id", tokenID),
			zap.String("stored_id", stored.Token))
		return nil, domainoauth.ErrTokenMismatch
	}

	cred, err := s.provider.ExchangeAccessToken(ctx, stored, verifier)
	if err != nil {
		return nil, fmt.Errorf("exchange access token: %w", err)
	}

	// Single-use: a second callback with the same token id must fail.
	if err := s.tokenStore.Delete(ctx, tokenID); err != nil {
		s.log().Warn("failed to delete consumed request token", zap.Error(err))
	}

	s.log().Info("login completed", zap.String("token_id", tokenID))
	return cred, nil
}

func (s *flowService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
