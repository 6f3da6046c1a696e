package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loopkit/linearbridge/internal/domain"
	"github.com/loopkit/linearbridge/internal/port/tokenstore"
)

// TokenStore persists workspace OAuth tokens with the token material
// encrypted at rest.
type TokenStore struct {
	pool *pgxpool.Pool
	key  []byte
}

// NewTokenStore creates a TokenStore backed by the given connection pool.
// The encryption secret is hashed into the AES key with DeriveKey.
func NewTokenStore(pool *pgxpool.Pool, encryptionSecret string) *TokenStore {
	return &TokenStore{pool: pool, key: DeriveKey(encryptionSecret)}
}

// Save upserts the token for its workspace.
func (s *TokenStore) Save(ctx context.Context, tok tokenstore.Token) error {
	accessCT, err := Encrypt([]byte(tok.AccessToken), s.key)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}

	var refreshCT []byte
	if tok.RefreshToken != "" {
		refreshCT, err = Encrypt([]byte(tok.RefreshToken), s.key)
		if err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
	}

	var expiresAt *time.Time
	if !tok.ExpiresAt.IsZero() {
		expiresAt = &tok.ExpiresAt
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO workspace_tokens (workspace_id, access_token, refresh_token, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (workspace_id) DO UPDATE
		 SET access_token = EXCLUDED.access_token,
		     refresh_token = EXCLUDED.refresh_token,
		     expires_at = EXCLUDED.expires_at,
		     updated_at = now()`,
		tok.WorkspaceID, accessCT, refreshCT, expiresAt)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Get returns the decrypted token for a workspace, or domain.ErrNotFound.
func (s *TokenStore) Get(ctx context.Context, workspaceID string) (*tokenstore.Token, error) {
	var (
		accessCT  []byte
		refreshCT []byte
		expiresAt *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT access_token, refresh_token, expires_at
		 FROM workspace_tokens WHERE workspace_id = $1`,
		workspaceID).Scan(&accessCT, &refreshCT, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	access, err := Decrypt(accessCT, s.key)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}

	tok := &tokenstore.Token{
		WorkspaceID: workspaceID,
		AccessToken: string(access),
	}
	if len(refreshCT) > 0 {
		refresh, err := Decrypt(refreshCT, s.key)
		if err != nil {
			return nil, fmt.Errorf("decrypt refresh token: %w", err)
		}
		tok.RefreshToken = string(refresh)
	}
	if expiresAt != nil {
		tok.ExpiresAt = *expiresAt
	}
	return tok, nil
}

// Delete removes a workspace's token, typically on app uninstall.
func (s *TokenStore) Delete(ctx context.Context, workspaceID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM workspace_tokens WHERE workspace_id = $1`, workspaceID)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
