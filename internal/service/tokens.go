package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/loopkit/linearbridge/internal/adapter/linearapi"
	"github.com/loopkit/linearbridge/internal/domain"
	"github.com/loopkit/linearbridge/internal/port/cache"
	"github.com/loopkit/linearbridge/internal/port/tokenstore"
)

// tokenPersistence is the durable side of the token service.
type tokenPersistence interface {
	Get(ctx context.Context, workspaceID string) (*tokenstore.Token, error)
	Save(ctx context.Context, tok tokenstore.Token) error
}

// tokenRefresher trades a refresh token for a new grant.
type tokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*linearapi.TokenResponse, error)
}

// TokenService implements tokenstore.Store over the encrypted Postgres
// store, with an in-process cache in front and transparent OAuth refresh
// for grants nearing expiry.
type TokenService struct {
	store    tokenPersistence
	cache    cache.Cache
	oauth    tokenRefresher
	margin   time.Duration
	cacheTTL time.Duration
	log      *slog.Logger
}

// NewTokenService creates the workspace credential resolver.
func NewTokenService(store tokenPersistence, c cache.Cache, oauth tokenRefresher, margin, cacheTTL time.Duration, log *slog.Logger) *TokenService {
	if log == nil {
		log = slog.Default()
	}
	return &TokenService{
		store:    store,
		cache:    c,
		oauth:    oauth,
		margin:   margin,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

func cacheKey(workspaceID string) string {
	return "credential:" + workspaceID
}

// Credential returns a live access token for the workspace, refreshing the
// grant first when it is inside the expiry margin.
func (s *TokenService) Credential(ctx context.Context, workspaceID string) (string, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, cacheKey(workspaceID)); err == nil && ok {
			return string(data), nil
		}
	}

	tok, err := s.store.Get(ctx, workspaceID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}

	if tok.Expiring(s.margin) && tok.RefreshToken != "" && s.oauth != nil {
		refreshed, err := s.refresh(ctx, tok)
		if err != nil {
			s.log.Warn("token refresh failed, using stored token",
				"workspace_id", workspaceID,
				"error", err)
		} else {
			tok = refreshed
		}
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey(workspaceID), []byte(tok.AccessToken), s.cacheTTL)
	}
	return tok.AccessToken, nil
}

// Save persists a new grant and primes the cache.
func (s *TokenService) Save(ctx context.Context, tok tokenstore.Token) error {
	if err := s.store.Save(ctx, tok); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey(tok.WorkspaceID), []byte(tok.AccessToken), s.cacheTTL)
	}
	return nil
}

func (s *TokenService) refresh(ctx context.Context, tok *tokenstore.Token) (*tokenstore.Token, error) {
	resp, err := s.oauth.Refresh(ctx, tok.RefreshToken)
	if err != nil {
		return nil, err
	}

	next := &tokenstore.Token{
		WorkspaceID:  tok.WorkspaceID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt(),
	}
	if next.RefreshToken == "" {
		next.RefreshToken = tok.RefreshToken
	}

	if err := s.store.Save(ctx, *next); err != nil {
		return nil, fmt.Errorf("persist refreshed token: %w", err)
	}

	s.log.Info("workspace token refreshed", "workspace_id", tok.WorkspaceID)
	return next, nil
}
