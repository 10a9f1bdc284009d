package main

import (
	"math/rand"
	"testing"
)

func TestVirusPoolSpawnUpTo(t *testing.T) {
	cfg := testConfig()
	pool := NewVirusPool(cfg, rand.New(rand.NewSource(1)))
	pool.SpawnUpTo(5)
	if pool.Count() != 5 {
		t.Fatalf("expected 5 viruses, got %d", pool.Count())
	}
	for _, v := range pool.All() {
		if v.inFlight() {
			t.Fatal("freshly spawned viruses should be at rest")
		}
	}
}

func TestVirusOverfeedTriggersShootRequest(t *testing.T) {
	cfg := testConfig()
	pool := NewVirusPool(cfg, rand.New(rand.NewSource(1)))
	v := newVirus(1, Vec2{100, 100}, 310, Vec2{}, 0)
	pool.byID[v.ID] = v

	massFood := NewMassFoodPool(rand.New(rand.NewSource(1)))
	m := massFood.Spawn(Vec2{100, 100}, Vec2{1, 0}, Vec2{100, 100}, 10, 0, 30)
	m.Pos = Vec2{100, 100}
	m.Speed = 0

	result := pool.Tick(massFood)
	if len(result.ShootRequests) != 1 {
		t.Fatalf("expected an over-feed shoot request, got %d", len(result.ShootRequests))
	}
	if massFood.Count() != 0 {
		t.Fatal("expected the consumed mass-food to be removed")
	}
	if v.Mass > VirusOverfeedMass {
		t.Fatal("virus mass should reset below the over-feed threshold after splitting")
	}
}

func TestVirusShootOneUsesConfiguredSpeed(t *testing.T) {
	cfg := testConfig()
	pool := NewVirusPool(cfg, rand.New(rand.NewSource(1)))
	pool.shootOne(Vec2{0, 0}, Vec2{1, 0})
	all := pool.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 virus, got %d", len(all))
	}
	if all[0].Speed != VirusShootSpeed {
		t.Fatalf("expected shot virus speed %f, got %f", VirusShootSpeed, all[0].Speed)
	}
}

func TestVirusMoveDecaysToRest(t *testing.T) {
	v := newVirus(1, Vec2{100, 100}, 100, Vec2{1, 0}, 5)
	for i := 0; i < 20; i++ {
		v.move(1000, 1000)
	}
	if v.Speed != 0 {
		t.Fatalf("expected virus to come to rest, got speed %f", v.Speed)
	}
}
