package main

import (
	"math/rand"
)

// VirusID is the dense u16 wire id spec §3 mandates for viruses.
type VirusID uint16

// Virus sits mostly still, splits cells that eat it, and itself "splits" by
// shooting a fresh virus once fed enough mass-food. It has no owner.
type Virus struct {
	ID        VirusID
	Pos       Vec2
	Radius    float64
	Mass      float64
	Direction Vec2
	Speed     float64
}

func newVirus(id VirusID, pos Vec2, mass float64, direction Vec2, speed float64) *Virus {
	return &Virus{
		ID:        id,
		Pos:       pos,
		Radius:    massToRadius(mass),
		Mass:      mass,
		Direction: direction,
		Speed:     speed,
	}
}

func (v *Virus) inFlight() bool { return v.Speed > 0 }

func (v *Virus) addMass(delta float64) {
	v.Mass += delta
	v.Radius = massToRadius(v.Mass)
}

// move advances a virus shot one tick: decays speed by a fixed 0.5 per
// tick, snapping to rest (speed cleared) once it crosses zero.
func (v *Virus) move(gameWidth, gameHeight float64) {
	if v.Speed <= 0 {
		return
	}
	v.Pos.X += v.Speed * v.Direction.X
	v.Pos.Y += v.Speed * v.Direction.Y
	v.Speed -= 0.5
	if v.Speed < 0 {
		v.Speed = 0
	}
	v.Pos.X, v.Pos.Y = clampToRect(v.Pos.X, v.Pos.Y, v.Radius, 5, gameWidth, gameHeight)
}

// VirusShootRequest is emitted when a virus crosses the over-feed threshold;
// the simulation turns it into a shoot_one call against the pool.
type VirusShootRequest struct {
	Pos       Vec2
	Direction Vec2
}

// VirusTickResult is the per-tick output contract for the pool: mass-food
// ids consumed this tick, plus any shoot-requests raised by over-feeding.
type VirusTickResult struct {
	EatenMassFoodIDs []MassFoodID
	ShootRequests    []VirusShootRequest
}

// VirusPool owns every virus in the world and fills to MaxVirus on demand.
type VirusPool struct {
	byID map[VirusID]*Virus
	cfg  *Config
	rng  *rand.Rand
}

func NewVirusPool(cfg *Config, rng *rand.Rand) *VirusPool {
	return &VirusPool{byID: make(map[VirusID]*Virus), cfg: cfg, rng: rng}
}

func (p *VirusPool) Count() int { return len(p.byID) }

func (p *VirusPool) Get(id VirusID) (*Virus, bool) {
	v, ok := p.byID[id]
	return v, ok
}

// allocateID picks a free u16 id by random sampling with collision-retry,
// falling back to a linear scan of the id space, matching
// FoodPool's existence-check allocator (spec §9 "Id wrapping").
func (p *VirusPool) allocateID() VirusID {
	const space = 1 << 16
	for attempt := 0; attempt < 64; attempt++ {
		id := VirusID(p.rng.Intn(space))
		if _, exists := p.byID[id]; !exists {
			return id
		}
	}
	for id := 0; id < space; id++ {
		if _, exists := p.byID[VirusID(id)]; !exists {
			return VirusID(id)
		}
	}
	return 0
}

func (p *VirusPool) All() []*Virus {
	out := make([]*Virus, 0, len(p.byID))
	for _, v := range p.byID {
		out = append(out, v)
	}
	return out
}

func (p *VirusPool) randomMass() float64 {
	return p.cfg.Virus.DefaultMassFrom + p.rng.Float64()*(p.cfg.Virus.DefaultMassTo-p.cfg.Virus.DefaultMassFrom)
}

// SpawnUpTo adds n resting viruses at uniformly random positions, returning
// the spawned viruses' wire deltas for a virus_added event. The caller
// chooses n (balanceMass passes the shortfall below MaxVirus).
func (p *VirusPool) SpawnUpTo(n int) []VirusWire {
	added := make([]VirusWire, 0, n)
	for i := 0; i < n; i++ {
		mass := p.randomMass()
		radius := massToRadius(mass)
		pos := Vec2{
			X: radius + p.rng.Float64()*(float64(p.cfg.GameWidth)-2*radius),
			Y: radius + p.rng.Float64()*(float64(p.cfg.GameHeight)-2*radius),
		}
		id := p.allocateID()
		v := newVirus(id, pos, mass, Vec2{}, 0)
		p.byID[v.ID] = v
		added = append(added, VirusWire{ID: v.ID, X: v.Pos.X, Y: v.Pos.Y, Mass: v.Mass})
	}
	return added
}

// shootOne spawns a fresh virus at position, travelling along direction at
// VirusShootSpeed, with a freshly rolled mass in the configured range.
func (p *VirusPool) shootOne(pos, direction Vec2) {
	mass := p.randomMass()
	id := p.allocateID()
	v := newVirus(id, pos, mass, direction, VirusShootSpeed)
	p.byID[v.ID] = v
}

func (p *VirusPool) Delete(id VirusID) {
	delete(p.byID, id)
}

// Tick advances every virus, collects mass-food it touches while stationary
// or moving, and returns any over-feed shoot-requests to apply.
func (p *VirusPool) Tick(massFood *MassFoodPool) VirusTickResult {
	result := VirusTickResult{}
	eaten := make(map[MassFoodID]bool)
	for _, v := range p.byID {
		v.move(float64(p.cfg.GameWidth), float64(p.cfg.GameHeight))

		for _, m := range massFood.All() {
			if eaten[m.ID] || m.inFlight() {
				continue
			}
			if !touches(v.Pos, v.Radius, m.Pos, m.Radius) {
				continue
			}
			lastDir := m.Direction
			v.addMass(m.Mass)
			eaten[m.ID] = true
			result.EatenMassFoodIDs = append(result.EatenMassFoodIDs, m.ID)

			if v.Mass > VirusOverfeedMass {
				v.Mass = p.randomMass()
				v.Radius = massToRadius(v.Mass)
				result.ShootRequests = append(result.ShootRequests, VirusShootRequest{
					Pos:       v.Pos,
					Direction: lastDir,
				})
			}
		}
	}
	for _, id := range result.EatenMassFoodIDs {
		massFood.Remove(id)
	}
	return result
}

// ApplyShootRequests spawns the viruses requested by the last Tick call.
func (p *VirusPool) ApplyShootRequests(reqs []VirusShootRequest) {
	for _, r := range reqs {
		p.shootOne(r.Pos, r.Direction)
	}
}
