package main

import "math/rand"

// FoodID packs the food's creation position into the id itself: (x<<16)|y,
// both truncated to uint16. Ids therefore double as a position hash used to
// steer QuadTree removal toward the right child without extra lookups.
type FoodID uint32

func packFoodID(x, y float64) FoodID {
	return FoodID(uint32(uint16(x))<<16 | uint32(uint16(y)))
}

func idToX(id FoodID) float64 { return float64(uint16(uint32(id) >> 16)) }
func idToY(id FoodID) float64 { return float64(uint16(uint32(id))) }

// Food is immutable after creation; FoodPool destroys it on consumption.
type Food struct {
	ID   FoodID
	X, Y float64
	Mass float64
	Hue  int
}

// FoodDelta is what the simulation forwards in the next delta/spawn frame:
// (id, hue) for additions, plain ids for removals.
type FoodDelta struct {
	ID  FoodID
	Hue int
}

const foodSpawnRetries = 8

// FoodPool owns the QuadTree and tracks the monotonic count needed for
// world mass balancing.
type FoodPool struct {
	tree *QuadTree
	cfg  *Config
	rng  *rand.Rand
}

func NewFoodPool(cfg *Config, rng *rand.Rand) *FoodPool {
	return &FoodPool{
		tree: NewQuadTree(Rect{0, 0, float64(cfg.GameWidth), float64(cfg.GameHeight)}, cfg.FoodCapacityQ),
		cfg:  cfg,
		rng:  rng,
	}
}

func (p *FoodPool) Count() int { return p.tree.count() }

// SpawnUpTo samples up to n new food items at uniformly random positions.
// A colliding id is resampled; after foodSpawnRetries failed attempts the
// spawn is skipped for that slot (non-fatal, per spec §7).
func (p *FoodPool) SpawnUpTo(n int) []FoodDelta {
	radius := massToRadius(p.cfg.FoodMass)
	added := make([]FoodDelta, 0, n)
	for i := 0; i < n; i++ {
		var f Food
		ok := false
		for attempt := 0; attempt < foodSpawnRetries; attempt++ {
			x := radius + p.rng.Float64()*(float64(p.cfg.GameWidth)-2*radius)
			y := radius + p.rng.Float64()*(float64(p.cfg.GameHeight)-2*radius)
			id := packFoodID(x, y)
			if p.tree.contains(id) {
				continue
			}
			f = Food{
				ID:   id,
				X:    x,
				Y:    y,
				Mass: p.cfg.FoodMass,
				Hue:  p.rng.Intn(360),
			}
			ok = true
			break
		}
		if !ok {
			continue
		}
		if p.tree.insert(f) {
			added = append(added, FoodDelta{ID: f.ID, Hue: f.Hue})
		}
	}
	return added
}

// Delete removes a batch of food by id, returning the ids actually removed.
func (p *FoodPool) Delete(ids []FoodID) []FoodID {
	removed := make([]FoodID, 0, len(ids))
	for _, id := range ids {
		if p.tree.remove(id) {
			removed = append(removed, id)
		}
	}
	return removed
}

// Retrieve returns every food whose position lies within rect.
func (p *FoodPool) Retrieve(rect Rect) []Food {
	out := []Food{}
	p.tree.retrieve(rect, &out)
	return out
}
