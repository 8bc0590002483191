package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arena-duel/internal/game"
)

// Metrics with bounded cardinality: combatant labels come from the fixed
// roster, endpoint labels from route patterns.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "match_tick_duration_seconds",
		Help:    "Time spent in one match tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025},
	})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "render_frame_duration_seconds",
		Help:    "Time spent rendering a PNG frame",
		Buckets: []float64{0.005, 0.01, 0.02, 0.033, 0.05, 0.1},
	})

	combatantHealth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "match_combatant_health",
		Help: "Current health per combatant",
	}, []string{"combatant"})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // "rate_limit", "origin", "ws_ip_limit", "ws_total_limit"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "WebSocket messages by direction",
	}, []string{"direction"}) // "out", "in"
)

// StatsSource exposes cumulative match counters.
type StatsSource interface {
	Stats() game.MatchStats
}

var (
	statsSource   atomic.Pointer[StatsSource]
	registerStats sync.Once
)

// RegisterMatchMetrics exports src's counters. Counters are registered on
// the first call; later calls only swap the source.
func RegisterMatchMetrics(src StatsSource) {
	statsSource.Store(&src)
	registerStats.Do(func() {
		counter := func(name, help string, pick func(game.MatchStats) uint64) {
			promauto.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help}, func() float64 {
				p := statsSource.Load()
				if p == nil {
					return 0
				}
				return float64(pick((*p).Stats()))
			})
		}
		counter("match_ticks_total", "Match ticks run", func(s game.MatchStats) uint64 { return s.Ticks })
		counter("match_weapon_pickups_total", "Weapon pickups", func(s game.MatchStats) uint64 { return s.Pickups })
		counter("match_weapon_drops_total", "Weapon drops", func(s game.MatchStats) uint64 { return s.Drops })
		counter("match_hits_total", "Weapon hits landed", func(s game.MatchStats) uint64 { return s.Hits })
		counter("match_collisions_total", "Combatant collisions resolved", func(s game.MatchStats) uint64 { return s.Collisions })
		counter("match_finished_total", "Matches finished", func(s game.MatchStats) uint64 { return s.Finished })
		counter("match_skills_total", "Skills activated", func(s game.MatchStats) uint64 { return s.Skills })
	})
}

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // MUST stay on localhost in production
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// DebugHandler serves pprof, /metrics and /health.
func DebugHandler(cfg ObservabilityConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.BasicAuthUser != "" {
		return basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}
	return mux
}

// StartDebugServer starts the internal observability server.
// CRITICAL: binds to localhost unless ALLOW_DEBUG_EXTERNAL=true.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	if !isLoopback(cfg.ListenAddr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Println("⚠️ Debug server forced to localhost for security")
		cfg.ListenAddr = "127.0.0.1:6060"
	}

	handler := DebugHandler(cfg)
	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

func isLoopback(addr string) bool {
	for _, prefix := range []string{"127.0.0.1:", "localhost:", "[::1]:"} {
		if len(addr) > len(prefix) && addr[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TickRecorder returns a runner subscriber recording tick timing and
// health. Roster members missing from a snapshot are dead and read zero.
func TickRecorder(roster []string) game.TickFunc {
	return func(snap game.Snapshot, took time.Duration) {
		tickDuration.Observe(took.Seconds())
		for _, id := range roster {
			health := 0
			for _, h := range snap.Combatants {
				if h.ID == id {
					health = h.Health
					break
				}
			}
			combatantHealth.WithLabelValues(id).Set(float64(health))
		}
	}
}

// RecordRender records render timing
func RecordRender(duration time.Duration) {
	renderDuration.Observe(duration.Seconds())
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// UpdateWSConnections updates the websocket connection gauge
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages counts one websocket message in direction "in" or "out"
func IncrementWSMessages(direction string) {
	wsMessagesTotal.WithLabelValues(direction).Inc()
}
