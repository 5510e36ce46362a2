package routes

import (
	"net/http"
	"net/netip"
	"time"

	"Readout/internal/api/middleware"
	"Readout/internal/core/reader"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Options configures the HTTP router.
type Options struct {
	// AllowedOrigins enables CORS for browser clients; empty disables it.
	AllowedOrigins []string
	// APIToken, when set, is required as a bearer token on every /api route.
	APIToken string
	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies []netip.Prefix
	// RequestsPerMinute per client IP; 0 disables rate limiting.
	RequestsPerMinute int
}

// NewRouter builds the HTTP API around the read-through repository.
func NewRouter(svc reader.Service, opts Options) (http.Handler, *middleware.RateLimiter) {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RealIP(opts.TrustedProxies))
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	if len(opts.AllowedOrigins) > 0 {
		r.Use(corsMiddleware(opts.AllowedOrigins))
	}

	var limiter *middleware.RateLimiter
	if opts.RequestsPerMinute > 0 {
		limiter = middleware.NewRateLimiter(opts.RequestsPerMinute, time.Minute)
		r.Use(limiter.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		if opts.APIToken != "" {
			r.Use(middleware.NewTokenAuthMiddleware(opts.APIToken).RequireAuth)
		}
		RegisterFeedRoutes(r, svc)
		RegisterPostRoutes(r, svc, originChecker(opts.AllowedOrigins))
		RegisterCommentRoutes(r, svc)
		RegisterUserRoutes(r, svc)
		RegisterSubredditRoutes(r, svc)
	})
	return r, limiter
}

// corsMiddleware allows browser clients from the configured origins
func corsMiddleware(allowedOrigins []string) func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		MaxAge: 300, // 5 minutes
	})
}

// originChecker accepts WebSocket upgrades from the CORS origins. A nil result
// keeps gorilla's same-origin check.
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	if len(allowedOrigins) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}
