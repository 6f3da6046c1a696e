package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/loopkit/linearbridge/internal/adapter/linearapi"
	"github.com/loopkit/linearbridge/internal/port/cache"
	"github.com/loopkit/linearbridge/internal/port/tokenstore"
)

// stateTTL bounds how long an install redirect may stay pending.
const stateTTL = 10 * time.Minute

// oauthExchanger is the authorization-code side of the Linear OAuth flow.
type oauthExchanger interface {
	AuthorizeURL(state string) string
	Exchange(ctx context.Context, code string) (*linearapi.TokenResponse, error)
}

// tokenSaver persists a completed grant.
type tokenSaver interface {
	Save(ctx context.Context, tok tokenstore.Token) error
}

// workspaceResolver returns the workspace id a fresh credential belongs to.
type workspaceResolver func(ctx context.Context, accessToken string) (string, error)

// OAuthService drives the app install flow: redirect out with a one-time
// state, then exchange the returned code and persist the workspace grant.
type OAuthService struct {
	oauth     oauthExchanger
	cache     cache.Cache
	tokens    tokenSaver
	workspace workspaceResolver
	log       *slog.Logger
}

// NewOAuthService wires the install flow.
func NewOAuthService(oauth oauthExchanger, c cache.Cache, tokens tokenSaver, workspace workspaceResolver, log *slog.Logger) *OAuthService {
	if log == nil {
		log = slog.Default()
	}
	return &OAuthService{
		oauth:     oauth,
		cache:     c,
		tokens:    tokens,
		workspace: workspace,
		log:       log,
	}
}

func stateKey(state string) string {
	return "oauth:state:" + state
}

// InstallURL mints a one-time state and returns the authorize redirect target.
func (s *OAuthService) InstallURL(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.cache.Set(ctx, stateKey(state), []byte("pending"), stateTTL); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return s.oauth.AuthorizeURL(state), nil
}

// Complete finishes the install: validates the state, exchanges the code,
// resolves the workspace, and persists the grant. Returns the workspace id.
func (s *OAuthService) Complete(ctx context.Context, code, state string) (string, error) {
	if code == "" || state == "" {
		return "", fmt.Errorf("missing code or state")
	}

	_, ok, err := s.cache.Get(ctx, stateKey(state))
	if err != nil {
		return "", fmt.Errorf("check oauth state: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("unknown or expired oauth state")
	}
	_ = s.cache.Delete(ctx, stateKey(state))

	resp, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}

	workspaceID, err := s.workspace(ctx, resp.AccessToken)
	if err != nil {
		return "", fmt.Errorf("resolve workspace: %w", err)
	}

	tok := tokenstore.Token{
		WorkspaceID:  workspaceID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt(),
	}
	if err := s.tokens.Save(ctx, tok); err != nil {
		return "", fmt.Errorf("save grant: %w", err)
	}

	s.log.Info("workspace installed", "workspace_id", workspaceID)
	return workspaceID, nil
}
