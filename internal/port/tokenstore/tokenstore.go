// Package tokenstore defines the workspace credential port. Implementations
// persist OAuth tokens per Linear workspace and hand out currently valid
// bearer credentials, refreshing expiring ones transparently.
package tokenstore

import (
	"context"
	"time"
)

// Token is one workspace's OAuth grant.
type Token struct {
	WorkspaceID  string    `json:"workspace_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expiring reports whether the token expires within the given margin.
// Tokens without an expiry never report as expiring.
func (t Token) Expiring(margin time.Duration) bool {
	return !t.ExpiresAt.IsZero() && time.Until(t.ExpiresAt) < margin
}

// Store is the port interface for workspace credential storage.
type Store interface {
	// Credential returns a currently valid bearer token for the workspace,
	// refreshing an expiring one before returning it. Returns
	// domain.ErrNoCredential when the workspace has no usable grant.
	Credential(ctx context.Context, workspaceID string) (string, error)

	// Save upserts the workspace's token.
	Save(ctx context.Context, t Token) error
}
