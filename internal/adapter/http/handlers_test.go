package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/loopkit/linearbridge/internal/config"
	"github.com/loopkit/linearbridge/internal/dispatch"
	"github.com/loopkit/linearbridge/internal/domain/session"
	"github.com/loopkit/linearbridge/internal/middleware"
	"github.com/loopkit/linearbridge/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Linear.WebhookSecret = "whsec"
	cfg.Linear.ClientSecret = "oauth-secret"
	cfg.Backend.APIKey = "sk-test"
	cfg.Tokens.EncryptionSecret = "enc-secret"
	return &cfg
}

func testRouter(t *testing.T, h *Handlers) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	MountRoutes(r, h)
	return r
}

func signPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHealth(t *testing.T) {
	r := testRouter(t, &Handlers{Cfg: testConfig(t)})

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestReadyDegraded(t *testing.T) {
	h := &Handlers{
		Cfg:   testConfig(t),
		Ready: func(context.Context) error { return errors.New("postgres unreachable") },
	}
	r := testRouter(t, h)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "postgres unreachable") {
		t.Fatalf("body missing reason: %s", rec.Body.String())
	}
}

func TestWebhookAcceptedAndDispatched(t *testing.T) {
	routed := make(chan session.Event, 1)
	route := func(_ context.Context, evt session.Event) { routed <- evt }

	cfg := testConfig(t)
	h := &Handlers{
		Cfg:     cfg,
		Webhook: service.NewWebhookService(route, dispatch.NewRunner(4, nil), nil),
	}
	r := testRouter(t, h)

	body := []byte(`{"type":"AgentSessionEvent","action":"created","agentSession":{"id":"sess-1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/linear", strings.NewReader(string(body)))
	req.Header.Set(middleware.HeaderLinearSignature, signPayload(cfg.Linear.WebhookSecret, body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	select {
	case evt := <-routed:
		if evt.AgentSession.ID != "sess-1" {
			t.Fatalf("routed session %q, want sess-1", evt.AgentSession.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("event was not dispatched")
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	route := func(context.Context, session.Event) { t.Error("event must not be routed") }

	cfg := testConfig(t)
	h := &Handlers{
		Cfg:     cfg,
		Webhook: service.NewWebhookService(route, dispatch.NewRunner(4, nil), nil),
	}
	r := testRouter(t, h)

	body := []byte(`{"type":"AgentSessionEvent","action":"created","agentSession":{"id":"s"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/linear", strings.NewReader(string(body)))
	req.Header.Set(middleware.HeaderLinearSignature, signPayload("wrong-secret", body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestAdminConfigRedactsSecrets(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	cfg := testConfig(t)
	cfg.Admin.KeyHash = string(hash)
	r := testRouter(t, &Handlers{Cfg: cfg})

	req := httptest.NewRequest(http.MethodGet, "/admin/config", http.NoBody)
	req.Header.Set(middleware.HeaderAPIKey, "admin-key")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got config.Config
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal config: %v", err)
	}
	for name, v := range map[string]string{
		"postgres dsn":   got.Postgres.DSN,
		"client secret":  got.Linear.ClientSecret,
		"webhook secret": got.Linear.WebhookSecret,
		"api key":        got.Backend.APIKey,
		"token secret":   got.Tokens.EncryptionSecret,
	} {
		if v != "[redacted]" {
			t.Errorf("%s = %q, want [redacted]", name, v)
		}
	}
	if got.Server.Port != cfg.Server.Port {
		t.Errorf("non-secret field should pass through, port = %q", got.Server.Port)
	}
}

func TestAdminConfigRequiresKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Admin.KeyHash = "$2a$10$something"
	r := testRouter(t, &Handlers{Cfg: cfg})

	req := httptest.NewRequest(http.MethodGet, "/admin/config", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
