package app

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/smallwat3r/longerlogin/internal/domain"
	"github.com/smallwat3r/longerlogin/internal/logger"
	"github.com/smallwat3r/longerlogin/internal/metrics"
	"github.com/smallwat3r/longerlogin/internal/utility"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ContentLengthValidator validates Content-Length header for requests with bodies.
// It rejects requests without Content-Length or with excessive Content-Length.
func ContentLengthValidator(maxSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Only validate methods that typically have request bodies
			if r.Method == http.MethodPost || r.Method == http.MethodPut ||
				r.Method == http.MethodPatch {
				// Check if Content-Length header is present
				// r.ContentLength is -1 if not specified or chunked encoding
				if r.ContentLength < 0 {
					utility.HttpError(w, http.StatusLengthRequired,
						"Content-Length header is required")
					return
				}
				// Reject if Content-Length exceeds maximum
				if r.ContentLength > maxSize {
					utility.HttpError(w, http.StatusRequestEntityTooLarge,
						"Content-Length exceeds maximum allowed size")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersConfig holds configuration for security headers middleware.
type SecurityHeadersConfig struct {
	RequireHTTPS bool
	// TrustProxy honors X-Forwarded-Proto when deciding whether a request
	// arrived over HTTPS.
	TrustProxy bool
}

// SecurityHeaders adds security-related HTTP headers to responses. Responses
// are marked no-store since the login and settings pages carry session state.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// HTTPS enforcement with HSTS
			// Skip redirect for /health endpoint to allow internal health checks
			if cfg.RequireHTTPS && r.URL.Path != "/health" {
				isHTTPS := r.TLS != nil ||
					(cfg.TrustProxy && r.Header.Get("X-Forwarded-Proto") == "https")
				if !isHTTPS {
					// Redirect HTTP to HTTPS
					target := "https://" + r.Host + r.URL.RequestURI()
					http.Redirect(w, r, target, http.StatusMovedPermanently)
					return
				}
				// HSTS: instruct browsers to only use HTTPS for 1 year
				w.Header().Set("Strict-Transport-Security",
					"max-age=31536000; includeSubDomains")
			}

			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")
			// Prevent clickjacking (also enforced by CSP frame-ancestors)
			w.Header().Set("X-Frame-Options", "DENY")
			// Control referrer information
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			// pages are plain server-rendered forms with no scripts
			csp := "default-src 'none'; style-src 'self'; " +
				"frame-ancestors 'none'; base-uri 'none'; form-action 'self'"
			w.Header().Set("Content-Security-Policy", csp)
			w.Header().Set("Cache-Control", "no-store")
			// Restrict browser features
			w.Header().Set("Permissions-Policy",
				"geolocation=(), microphone=(), camera=(), payment=(), usb=()")
			// Isolate browsing context
			w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	Limit  int           // max requests per client per window
	Window time.Duration // time window for rate limiting
}

// DefaultRateLimitConfig returns the limits applied to the login form.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:  domain.MaxLoginAttempts,
		Window: domain.LoginAttemptWindow,
	}
}

// RateLimiterMiddleware uses Redis for distributed rate limiting.
type RateLimiterMiddleware struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a new Redis-based rate limiter middleware.
func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		rdb:    rdb,
		limit:  cfg.Limit,
		window: cfg.Window,
	}
}

// Handler returns the HTTP middleware handler. Clients are keyed on the
// host of r.RemoteAddr only; forwarding headers are honored solely through
// the router's trusted-proxy option, which rewrites RemoteAddr upstream.
func (m *RateLimiterMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip rate limiting if Redis is not configured (e.g., in tests)
		if m.rdb == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := "ratelimit:login:" + clientHost(r.RemoteAddr)

		// Use a pipeline to atomically increment and set expiry.
		// This avoids a race condition where the process could crash between
		// INCR and EXPIRE, leaving a key without TTL.
		pipe := m.rdb.TxPipeline()
		incr := pipe.Incr(r.Context(), key)
		pipe.Expire(r.Context(), key, m.window)
		_, err := pipe.Exec(r.Context())
		if err != nil {
			logger.WithModule("ratelimit").Warn("redis error", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if int(incr.Val()) > m.limit {
			logger.WithModule("ratelimit").Warn("login attempts exceeded",
				zap.String("client", clientHost(r.RemoteAddr)))
			utility.HttpError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientHost strips the ephemeral port from a remote address.
func clientHost(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

// RequestLogger writes a structured access log line and records request
// metrics for each request.
func RequestLogger(next http.Handler) http.Handler {
	log := logger.WithModule("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		route := routeLabel(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

		log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("client_ip", r.RemoteAddr),
		)
	})
}

// unmatchedRoute labels requests no route matched, so unknown paths share a
// single metrics series.
const unmatchedRoute = "not_found"

func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unmatchedRoute
}

type sessionCtxKey struct{}

// SessionFromContext returns the admin session attached by RequireAdmin.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionCtxKey{}).(domain.Session)
	return s, ok
}

// RequireAdmin rejects requests without a valid admin session. Page requests
// are sent to the login form; API requests get a 401.
func (h *Handler) RequireAdmin(redirect bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := h.sessions.Current(r.Context(), r)
			if err != nil {
				if redirect {
					http.Redirect(w, r, "/", http.StatusSeeOther)
					return
				}
				utility.HttpError(w, http.StatusUnauthorized, "login required")
				return
			}
			ctx := context.WithValue(r.Context(), sessionCtxKey{}, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
