// Package http provides the bridge's HTTP surface: webhook intake, the
// OAuth install flow, health probes, and the admin config view.
package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/loopkit/linearbridge/internal/config"
	"github.com/loopkit/linearbridge/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// Handlers bundles the HTTP endpoints and their dependencies.
type Handlers struct {
	Webhook *service.WebhookService
	OAuth   *service.OAuthService

	// Ready reports whether downstream dependencies answer, nil when healthy.
	Ready func(ctx context.Context) error

	Cfg *config.Config
	Log *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReady reports readiness of downstream dependencies.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"reason": err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// HandleWebhook accepts a signature-verified Linear webhook delivery.
// Session work runs in the background; the 200 goes out immediately.
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if err := h.Webhook.HandleEvent(r.Context(), body); err != nil {
		h.log().Error("webhook handling failed", "error", err)
		writeError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleOAuthInstall starts the app install flow with a browser redirect.
func (h *Handlers) HandleOAuthInstall(w http.ResponseWriter, r *http.Request) {
	u, err := h.OAuth.InstallURL(r.Context())
	if err != nil {
		h.log().Error("install url failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start install")
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

// HandleOAuthCallback finishes the install flow.
func (h *Handlers) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	workspaceID, err := h.OAuth.Complete(r.Context(), code, state)
	if err != nil {
		h.log().Error("oauth callback failed", "error", err)
		writeError(w, http.StatusBadRequest, "install failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "installed",
		"workspace_id": workspaceID,
	})
}

// HandleConfig returns the running configuration with secrets redacted.
func (h *Handlers) HandleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, redactConfig(h.Cfg))
}

const redacted = "[redacted]"

// redactConfig masks secret material before it leaves the process.
func redactConfig(cfg *config.Config) config.Config {
	out := *cfg
	if out.Postgres.DSN != "" {
		out.Postgres.DSN = redacted
	}
	if out.Linear.ClientSecret != "" {
		out.Linear.ClientSecret = redacted
	}
	if out.Linear.WebhookSecret != "" {
		out.Linear.WebhookSecret = redacted
	}
	if out.Backend.APIKey != "" {
		out.Backend.APIKey = redacted
	}
	if out.Tokens.EncryptionSecret != "" {
		out.Tokens.EncryptionSecret = redacted
	}
	if out.Admin.KeyHash != "" {
		out.Admin.KeyHash = redacted
	}
	if out.Telegram.BotToken != "" {
		out.Telegram.BotToken = redacted
	}
	return out
}

func (h *Handlers) log() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}
