package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// ServerConfig bundles the dependencies NewRouter wires into HTTP routes.
type ServerConfig struct {
	World       *World
	Sessions    *SessionManager
	RateLimiter *IPRateLimiter
	CORSOrigins []string
}

// NewRouter builds the HTTP router: a WebSocket upgrade endpoint, health
// check, and Prometheus exposition.
func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)
	}

	origins := cfg.CORSOrigins
	if origins == nil {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/healthz", handleHealthz)
	r.Handle("/metrics", MetricsHandler())
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		handleWebsocket(w, req, cfg.World, cfg.Sessions, rateLimiter)
	})

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleWebsocket(w http.ResponseWriter, r *http.Request, world *World, sm *SessionManager, rl *IPRateLimiter) {
	ip := ClientIP(r)
	if !rl.Allow(ip) {
		RecordConnectionRejected("rate_limit")
		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: ws upgrade error: %v", err)
		return
	}

	UpdateWSConnections(sm.Count() + 1)
	defer UpdateWSConnections(sm.Count())

	session := NewSession(ws, world, sm)
	session.ReadLoop()
}
