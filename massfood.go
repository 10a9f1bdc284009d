package main

import "math/rand"

// MassFoodID is the dense u16 wire id spec §3 mandates for mass-food
// projectiles.
type MassFoodID uint16

// MassFood is a mass-food projectile ejected by a player's cell (the "w"
// eject command). It flies in a fixed direction at decaying speed, then goes
// stationary; it is eatable by any cell, regardless of owner, once it is
// stationary and the eating cell's mass clears a 1.1x margin.
type MassFood struct {
	ID        MassFoodID
	Mass      float64
	Hue       int
	Direction Vec2
	Pos       Vec2
	Radius    float64
	Speed     float64
}

// NewMassFood spawns a projectile just outside the ejecting cell's edge,
// aimed along the blend of the cell-to-cursor direction and the raw ejection
// direction (matching the original's 0.4-weighted blend).
func NewMassFood(id MassFoodID, playerPos, playerTarget, cellPos Vec2, cellRadius float64, hue int, mass float64) *MassFood {
	dir := normalize(Vec2{
		X: 0.4*(playerPos.X-cellPos.X) + playerTarget.X,
		Y: 0.4*(playerPos.Y-cellPos.Y) + playerTarget.Y,
	})
	pos := Vec2{
		X: cellPos.X + dir.X*cellRadius,
		Y: cellPos.Y + dir.Y*cellRadius,
	}
	return &MassFood{
		ID:        id,
		Mass:      mass,
		Hue:       hue,
		Direction: dir,
		Pos:       pos,
		Radius:    massToRadius(mass),
		Speed:     20.0,
	}
}

func (m *MassFood) inFlight() bool { return m.Speed > 0 }

// move advances the projectile one tick and decays its speed; once speed
// drops to zero it stays put permanently.
func (m *MassFood) move(gameWidth, gameHeight float64) {
	if m.Speed <= 0 {
		return
	}
	m.Pos.X += m.Speed * m.Direction.X
	m.Pos.Y += m.Speed * m.Direction.Y
	m.Speed -= MassFoodSpeedDecay
	if m.Speed < 0 {
		m.Speed = 0
	}
	m.Pos.X, m.Pos.Y = clampToRect(m.Pos.X, m.Pos.Y, m.Radius, 5, gameWidth, gameHeight)
}

// canBeEatenBy reports whether a cell of the given mass/position may consume
// this projectile this tick. In-flight projectiles are universally
// uneatable regardless of who ejected them; spec §9's open question on
// self-eating resolves to "uneatable while in flight, eatable once
// stationary" for every cell, not just strangers.
func (m *MassFood) canBeEatenBy(eaterMass float64, eaterPos Vec2, eaterRadius float64) bool {
	if m.inFlight() {
		return false
	}
	if !touches(eaterPos, eaterRadius, m.Pos, m.Radius) {
		return false
	}
	return eaterMass > m.Mass*1.1 && m.Speed < 18.0
}

// MassFoodPool owns every live mass-food projectile in the world.
type MassFoodPool struct {
	byID map[MassFoodID]*MassFood
	rng  *rand.Rand
}

func NewMassFoodPool(rng *rand.Rand) *MassFoodPool {
	return &MassFoodPool{byID: make(map[MassFoodID]*MassFood), rng: rng}
}

// allocateID picks a free u16 id by random sampling with collision-retry,
// falling back to a linear scan of the id space, matching
// FoodPool's existence-check allocator (spec §9 "Id wrapping").
func (p *MassFoodPool) allocateID() MassFoodID {
	const space = 1 << 16
	for attempt := 0; attempt < 64; attempt++ {
		id := MassFoodID(p.rng.Intn(space))
		if _, exists := p.byID[id]; !exists {
			return id
		}
	}
	for id := 0; id < space; id++ {
		if _, exists := p.byID[MassFoodID(id)]; !exists {
			return MassFoodID(id)
		}
	}
	return 0
}

// Spawn allocates a fresh dense id and inserts a new projectile ejected from
// cellPos, returning it so the caller can broadcast its wire delta.
func (p *MassFoodPool) Spawn(playerPos, playerTarget, cellPos Vec2, cellRadius float64, hue int, mass float64) *MassFood {
	m := NewMassFood(p.allocateID(), playerPos, playerTarget, cellPos, cellRadius, hue, mass)
	p.byID[m.ID] = m
	return m
}

func (p *MassFoodPool) Remove(id MassFoodID) {
	delete(p.byID, id)
}

func (p *MassFoodPool) Count() int { return len(p.byID) }

func (p *MassFoodPool) All() []*MassFood {
	out := make([]*MassFood, 0, len(p.byID))
	for _, m := range p.byID {
		out = append(out, m)
	}
	return out
}

// Tick advances every in-flight projectile's position.
func (p *MassFoodPool) Tick(gameWidth, gameHeight float64) {
	for _, m := range p.byID {
		m.move(gameWidth, gameHeight)
	}
}
