package main

import (
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// connectMatchmaking dials the matchmaking sidecar if MATCHMAKING_URL is
// set, otherwise falls back to a no-op bridge so a standalone match still
// runs to completion (spec.md §7, "Matchmaking unavailable").
func connectMatchmaking() (MatchmakingBridge, int) {
	url := os.Getenv("MATCHMAKING_URL")
	if url == "" {
		return NopMatchmakingBridge{}, 0
	}
	bridge, err := DialMatchmakingBridge(url)
	if err != nil {
		log.Printf("main: matchmaking bridge unavailable, continuing standalone: %v", err)
		return NopMatchmakingBridge{}, 0
	}
	port := getEnvInt("MATCHMAKING_PORT", 0)
	return bridge, port
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("main: no .env file loaded: %v", err)
	}

	cfg := FromEnv()
	bridge, matchmakingPort := connectMatchmaking()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	world := NewWorld(cfg, rng, bridge, matchmakingPort)
	sessions := NewSessionManager()
	sim := NewSimulation(world, sessions)

	rateLimiter := NewIPRateLimiter(DefaultRateLimitConfig)
	defer rateLimiter.Stop()

	router := NewRouter(ServerConfig{
		World:       world,
		Sessions:    sessions,
		RateLimiter: rateLimiter,
	})

	go sim.Run()

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("main: listening on %s (%dx%d world)", addr, cfg.GameWidth, cfg.GameHeight)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("main: server error: %v", err)
	}
}
