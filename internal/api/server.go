package api

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"arena-duel/internal/config"
)

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the spectator hub for live views.
type Server struct {
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer creates a server from the host configuration.
//
// IMPORTANT: the hub and broadcast loop do NOT start until Start() is called.
// Tests can construct the server and use Router() without them.
func NewServer(match MatchInterface, music MusicInterface, renderer FrameEncoder, cfg config.ServerConfig) *Server {
	s := &Server{
		wsHub: NewWebSocketHub(match, cfg.MaxWSPerIP, cfg.AllowedOrigins),
		rateLimiter: NewIPRateLimiter(RateLimitConfig{
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		}),
	}

	s.router = NewRouter(RouterConfig{
		Match:       match,
		Music:       music,
		Renderer:    renderer,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.AllowedOrigins,
	})
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins the HTTP server and the background workers. It blocks until
// the server stops; a graceful Shutdown returns nil.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("   - view:  http://localhost%s/api/view", addr)
	log.Printf("   - frame: http://localhost%s/api/frame.png", addr)
	log.Printf("   - live:  ws://localhost%s/ws", addr)

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the spectator hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Stop shuts the listener down and stops background workers.
func (s *Server) Stop(ctx context.Context) error {
	s.wsHub.Stop()
	s.rateLimiter.Stop()
	return s.httpServer.Shutdown(ctx)
}
