package main

import (
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthzReturnsOK(t *testing.T) {
	world := NewWorld(DefaultConfig(), rand.New(rand.NewSource(1)), NopMatchmakingBridge{}, 0)
	router := NewRouter(ServerConfig{World: world, Sessions: NewSessionManager()})
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	world := NewWorld(DefaultConfig(), rand.New(rand.NewSource(1)), NopMatchmakingBridge{}, 0)
	router := NewRouter(ServerConfig{World: world, Sessions: NewSessionManager()})
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
