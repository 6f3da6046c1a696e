package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/loopkit/linearbridge/internal/middleware"
)

// MountRoutes registers all routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.HandleHealth)
	r.Get("/health/ready", h.HandleReady)

	// Webhook intake, outside admin auth, verified by HMAC signature.
	r.With(middleware.WebhookSignature(h.Cfg.Linear.WebhookSecret)).
		Post("/webhook/linear", h.HandleWebhook)

	// OAuth install flow.
	r.Get("/oauth/install", h.HandleOAuthInstall)
	r.Get("/oauth/callback", h.HandleOAuthCallback)

	// Management endpoints.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AdminAuth(h.Cfg.Admin.KeyHash))
		r.Get("/config", h.HandleConfig)
	})
}
