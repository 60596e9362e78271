package routing

import (
	"net/http"

	"bandfest/internal/handlers"
	"bandfest/internal/middleware"
	"bandfest/internal/web/components"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Config holds the configuration needed for setting up routes
type Config struct {
	Handlers *handlers.Handler
	Logger   zerolog.Logger

	// RateLimit overrides the default limits when set
	RateLimit *middleware.RateLimitConfig
}

// SetupRouter creates and configures the HTTP router with all routes and middleware
func SetupRouter(cfg Config) http.Handler {
	h := cfg.Handlers
	mux := http.NewServeMux()

	// Create CrossOriginProtection for CSRF protection on the write API
	cop := http.NewCrossOriginProtection()

	// Lineup pages and card fragments
	mux.HandleFunc("GET /{$}", h.HandleLineupPage)
	mux.HandleFunc("GET /lineup", h.HandleLineupPage)
	mux.HandleFunc("GET /lineup/card", h.HandleCardFragment)
	mux.HandleFunc("GET /lineup/{slug}", h.HandleArtistCard)

	// JSON API
	mux.HandleFunc("GET /api/lineup", h.HandleLineupAPI)
	mux.Handle("PUT /api/artists/{slug}", cop.Handler(http.HandlerFunc(h.HandleArtistPut)))
	mux.Handle("DELETE /api/artists/{slug}", cop.Handler(http.HandlerFunc(h.HandleArtistDelete)))

	// Metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(components.Static())))

	// Compression applies to everything except the websocket, which needs the
	// raw connection.
	root := http.NewServeMux()
	root.HandleFunc("GET /ws/lineup", h.HandleLive)
	root.Handle("/", middleware.GzipMiddleware(mux))

	// Apply middleware in order (outermost first, innermost last)
	var handler http.Handler = root

	// 1. Limit request body size (innermost - runs first on request)
	handler = middleware.LimitBodyMiddleware(handler)

	// 2. Apply rate limiting
	rateLimitConfig := cfg.RateLimit
	if rateLimitConfig == nil {
		rateLimitConfig = middleware.NewDefaultRateLimitConfig()
	}
	handler = middleware.RateLimitMiddleware(rateLimitConfig)(handler)

	// 3. Apply security headers
	handler = middleware.SecurityHeadersMiddleware(handler)

	// 4. Apply logging middleware
	handler = middleware.LoggingMiddleware(cfg.Logger)(handler)

	// 5. Tracing (outermost - starts the server span)
	handler = otelhttp.NewHandler(handler, "bandfest",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)

	return handler
}
