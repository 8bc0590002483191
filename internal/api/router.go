package api

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"arena-duel/internal/game"
)

// MatchInterface is the slice of *game.Match the handlers and the hub use.
type MatchInterface interface {
	// LastSnapshot returns the health report of the most recent tick
	LastSnapshot() game.Snapshot
	// View returns the latest published render state
	View() game.View
	// Stats returns cumulative counters
	Stats() game.MatchStats
	// ApplySkill queues a skill for the next tick boundary
	ApplySkill(id string, kind game.Skill) error
	// Reset starts a fresh match
	Reset()
}

// MusicInterface reports which theme is playing.
type MusicInterface interface {
	Playing() string
}

// FrameEncoder renders a view as PNG.
type FrameEncoder interface {
	EncodePNG(w io.Writer, v game.View) error
}

// RouterConfig wires the duel routes. Only Match is required; a nil Music
// or Renderer turns the matching route into a "disabled" answer.
type RouterConfig struct {
	// Match is the running match (required)
	Match MatchInterface

	// Music is optional; without it /api/music reports disabled
	Music MusicInterface

	// Renderer is optional; without it /api/frame.png returns 404
	Renderer FrameEncoder

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, any localhost port is allowed.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

type routerHandlers struct {
	match       MatchInterface
	music       MusicInterface
	renderer    FrameEncoder
	rateLimiter *IPRateLimiter
}

// NewRouter builds the chi mux for state, view, stats, frame, music, skill
// and reset routes. It opens no listener. When cfg.RateLimiter is nil it
// creates one whose cleanup goroutine lives for the process.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	// Recoverer must wrap the metrics and limiter layers
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	h := &routerHandlers{
		match:       cfg.Match,
		music:       cfg.Music,
		renderer:    cfg.Renderer,
		rateLimiter: rateLimiter,
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleGetState)
		r.Get("/view", h.handleGetView)
		r.Get("/stats", h.handleGetStats)
		r.Get("/frame.png", h.handleFrame)
		r.Get("/music", h.handleMusic)

		r.Post("/skill", h.handleSkill)
		r.Post("/match/reset", h.handleReset)
	})
	r.Get("/health", h.handleHealth)

	return r
}

// metricsMiddleware records latency and status per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}
