package main

import (
	"net/http"
	"testing"
	"time"
)

func TestIPRateLimiterAllowsBurstThenThrottles(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2, CleanupInterval: time.Hour})
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first attempt within burst should be allowed")
	}
	if !rl.Allow("1.2.3.4") {
		t.Fatal("second attempt within burst should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third immediate attempt should be throttled")
	}
}

func TestIPRateLimiterTracksIPsIndependently(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Hour})
	defer rl.Stop()

	if !rl.Allow("1.1.1.1") {
		t.Fatal("first IP's first attempt should be allowed")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatal("a different IP must have its own independent budget")
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	req.RemoteAddr = "127.0.0.1:5555"
	if ip := ClientIP(req); ip != "9.9.9.9" {
		t.Fatalf("expected the first forwarded address, got %q", ip)
	}
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "8.8.8.8:1234"
	if ip := ClientIP(req); ip != "8.8.8.8" {
		t.Fatalf("expected RemoteAddr's host, got %q", ip)
	}
}
