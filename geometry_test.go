package main

import (
	"math"
	"testing"
)

func TestLerpDegShortestArc(t *testing.T) {
	a := math.Pi - 0.01
	b := -math.Pi + 0.01
	got := lerpDeg(a, b, 0.5)
	if math.Abs(math.Abs(got)-math.Pi) > 0.02 {
		t.Fatalf("lerpDeg should take the short arc across +/-pi (midpoint at +/-pi), got %f", got)
	}
}

func TestLerp(t *testing.T) {
	if got := lerp(0, 10, 0.5); got != 5 {
		t.Fatalf("expected 5, got %f", got)
	}
}

func TestMassToRadius(t *testing.T) {
	if got := massToRadius(0); got != 4 {
		t.Fatalf("expected 4, got %f", got)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	got := normalize(Vec2{})
	if got.X != 0 || got.Y != 0 {
		t.Fatalf("expected zero vector, got %+v", got)
	}
}

func TestOverlapsEnoughContainment(t *testing.T) {
	if !overlapsEnough(Vec2{0, 0}, 10, Vec2{1, 0}, 100) {
		t.Fatal("a small disc centered inside a much larger one should overlap enough")
	}
}

func TestOverlapsEnoughFarApart(t *testing.T) {
	if overlapsEnough(Vec2{0, 0}, 10, Vec2{1000, 0}, 10) {
		t.Fatal("far apart discs should not overlap")
	}
}

func TestTouches(t *testing.T) {
	if !touches(Vec2{0, 0}, 5, Vec2{8, 0}, 5) {
		t.Fatal("discs 8 apart with radius 5 each should touch")
	}
	if touches(Vec2{0, 0}, 5, Vec2{11, 0}, 5) {
		t.Fatal("discs 11 apart with radius 5 each should not touch")
	}
}

func TestClampToRect(t *testing.T) {
	x, y := clampToRect(-5, 20000, 10, 0, 1000, 1000)
	if x != 10 {
		t.Fatalf("expected x clamped to radius 10, got %f", x)
	}
	if y != 990 {
		t.Fatalf("expected y clamped to 990, got %f", y)
	}
}
