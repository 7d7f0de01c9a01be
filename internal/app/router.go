package app

import (
	"net/http"
	"time"

	"github.com/smallwat3r/longerlogin/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures the optional middleware of the router.
type RouterOptions struct {
	Security SecurityHeadersConfig
	// RateLimiter guards the login form; nil disables rate limiting.
	RateLimiter *RateLimiterMiddleware
	// TrustProxy rewrites RemoteAddr from X-Real-IP / X-Forwarded-For. Only
	// enable it behind a proxy that overwrites those headers.
	TrustProxy bool
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(SecurityHeaders(opts.Security))
		r.Use(ContentLengthValidator(domain.MaxRequestBodySize))

		r.Get("/", h.HandleLoginPage)
		r.Group(func(r chi.Router) {
			if opts.RateLimiter != nil {
				r.Use(opts.RateLimiter.Handler)
			}
			r.Post("/login", h.HandleLogin)
		})
		r.Post("/logout", h.HandleLogout)

		r.Route(generalSettingsPath, func(r chi.Router) {
			r.Use(h.RequireAdmin(true))
			r.Get("/", h.HandleSettingsPage)
			r.Post("/", h.HandleSettingsSave)
		})

		r.Route("/api/expiration", func(r chi.Router) {
			r.Use(h.RequireAdmin(false))
			r.Get("/", h.HandleGetExpiration)
			r.Put("/", h.HandlePutExpiration)
		})
	})

	return r
}
