package main

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// PlayerRoster is the stable-ordered collection of connected players. Order
// matters: the simulation step's pair-collision pass iterates (i < j) over
// this order.
type PlayerRoster struct {
	order []PlayerID
	byID  map[PlayerID]*Player
}

func NewPlayerRoster() *PlayerRoster {
	return &PlayerRoster{byID: make(map[PlayerID]*Player)}
}

func (r *PlayerRoster) Add(p *Player) {
	r.byID[p.ID] = p
	r.order = append(r.order, p.ID)
}

func (r *PlayerRoster) Remove(id PlayerID) {
	delete(r.byID, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *PlayerRoster) Get(id PlayerID) (*Player, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// allocateID picks a free u8 id by random sampling with collision-retry,
// falling back to a linear scan of the id space, matching
// FoodPool's existence-check allocator (spec §9 "Id wrapping").
func (r *PlayerRoster) allocateID(rng *rand.Rand) PlayerID {
	const space = 256
	for attempt := 0; attempt < space; attempt++ {
		id := PlayerID(rng.Intn(space))
		if _, exists := r.byID[id]; !exists {
			return id
		}
	}
	for id := 0; id < space; id++ {
		if _, exists := r.byID[PlayerID(id)]; !exists {
			return PlayerID(id)
		}
	}
	return 0
}

// InOrder returns every live player in stable roster order.
func (r *PlayerRoster) InOrder() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (r *PlayerRoster) Count() int { return len(r.order) }

// Leaderboard returns up to limit players sorted by total mass descending.
func (r *PlayerRoster) Leaderboard(limit int) []*Player {
	all := r.InOrder()
	sort.Slice(all, func(i, j int) bool { return all[i].TotalMass > all[j].TotalMass })
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// CommandKind enumerates every intent a session can deposit for application
// at the top of the next tick.
type CommandKind int

const (
	CmdSetTarget CommandKind = iota
	CmdRespawn
	CmdEject
	CmdSplit
	CmdTeleport
	CmdCashout
	CmdHeartbeat
	CmdKickPlayer
	CmdBindMatchmaking
	CmdRemovePlayer
)

// Command is one queued intent.
type Command struct {
	Kind     CommandKind
	PlayerID PlayerID

	Target Vec2 // CmdSetTarget

	MatchmakingUserID int64   // CmdBindMatchmaking
	Bet               float64 // CmdBindMatchmaking

	Reason string // CmdKickPlayer
}

// CommandQueue is a plain FIFO guarded by its own mutex; sessions push to it
// from their reader goroutines, the tick step drains it at step 1.
type CommandQueue struct {
	mu    sync.Mutex
	items []Command
}

func NewCommandQueue() *CommandQueue { return &CommandQueue{} }

func (q *CommandQueue) Push(c Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, c)
}

// Drain returns every queued command in FIFO order and empties the queue.
func (q *CommandQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.items
	q.items = nil
	return drained
}

// MatchmakingState tracks the bridge state needed to settle wagers and relay
// kicks.
type MatchmakingState struct {
	Bridge MatchmakingBridge
	Port   int
}

// World owns every pool plus the command queue and tick clock; it is the
// spec's single logical world, guarded here by one coarse RWMutex (the
// simpler of the two locking strategies the concurrency model allows).
type World struct {
	mu sync.RWMutex

	cfg *Config
	rng *rand.Rand

	Food     *FoodPool
	Virus    *VirusPool
	MassFood *MassFoodPool
	Roster   *PlayerRoster
	Commands *CommandQueue

	Matchmaking *MatchmakingState

	TickCount int64

	// StartedAt is the match's Unix start timestamp, set once here and
	// echoed unchanged in every welcome frame.
	StartedAt int64
}

func NewWorld(cfg *Config, rng *rand.Rand, bridge MatchmakingBridge, matchmakingPort int) *World {
	return &World{
		cfg:      cfg,
		rng:      rng,
		Food:     NewFoodPool(cfg, rng),
		Virus:    NewVirusPool(cfg, rng),
		MassFood: NewMassFoodPool(rng),
		Roster:   NewPlayerRoster(),
		Commands: NewCommandQueue(),
		Matchmaking: &MatchmakingState{
			Bridge: bridge,
			Port:   matchmakingPort,
		},
		StartedAt: time.Now().Unix(),
	}
}

// AddPlayer creates and admits a new player at a fresh spawn position. It is
// called directly from a session on a valid let_me_in, ahead of any tick —
// admission is not itself part of the fixed tick sequence.
func (w *World) AddPlayer(name, avatarURL string, matchmakingUser int64) *Player {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.Roster.allocateID(w.rng)
	p := NewPlayer(id, name, avatarURL, matchmakingUser, randomHue(w.rng))
	p.Spawn(w.spawnPosition(), w.cfg.DefaultPlayerMass, MinSpeed)
	p.ScreenWidth = 1920
	p.ScreenHeight = 1080
	p.LastHeartbeatTick = w.TickCount
	w.Roster.Add(p)
	return p
}

// PlayerWireOf renders a player's current state into its wire shape. Callers
// must already hold w.mu (read or write) — this does not lock on its own.
func (w *World) PlayerWireOf(p *Player) PlayerWire {
	cells := make([]CellWire, len(p.Cells))
	for i, c := range p.Cells {
		cells[i] = CellWire{Mass: c.Mass, X: c.Pos.X, Y: c.Pos.Y}
	}
	return PlayerWire{ID: p.ID, Cells: cells, X: p.Pos.X, Y: p.Pos.Y, Bet: p.Bet, Won: p.Won}
}

// PlayerWireByID looks up a player by id and renders its wire shape under a
// read lock — the safe way for a session goroutine to read player state that
// the tick loop mutates concurrently under w.mu (spec §5's single logical
// lock discipline).
func (w *World) PlayerWireByID(id PlayerID) (PlayerWire, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.Roster.Get(id)
	if !ok {
		return PlayerWire{}, false
	}
	return w.PlayerWireOf(p), true
}

// Snapshot renders every live entity into an all_init_data payload, taken
// under a read lock so a joining client sees one consistent instant.
func (w *World) Snapshot() AllInitDataPayload {
	w.mu.RLock()
	defer w.mu.RUnlock()

	players := make([]PlayerWire, 0, w.Roster.Count())
	for _, p := range w.Roster.InOrder() {
		players = append(players, w.PlayerWireOf(p))
	}

	viruses := make([]VirusWire, 0, w.Virus.Count())
	for _, v := range w.Virus.All() {
		viruses = append(viruses, VirusWire{ID: v.ID, X: v.Pos.X, Y: v.Pos.Y, Mass: v.Mass})
	}

	massFoods := make([]MassFoodWire, 0, w.MassFood.Count())
	for _, m := range w.MassFood.All() {
		massFoods = append(massFoods, MassFoodWire{ID: m.ID, X: m.Pos.X, Y: m.Pos.Y})
	}

	foods := []FoodPair{}
	for _, f := range w.Food.Retrieve(Rect{0, 0, float64(w.cfg.GameWidth), float64(w.cfg.GameHeight)}) {
		foods = append(foods, FoodPair{ID: f.ID, Hue: f.Hue})
	}

	return AllInitDataPayload{Players: players, Virus: viruses, MassFoods: massFoods, Foods: foods}
}

// totalMass sums food, virus, mass-food and player mass — the quantity
// balanceMass keeps near cfg.GameMass.
func (w *World) totalMass() float64 {
	total := 0.0
	for _, f := range w.Food.Retrieve(Rect{0, 0, float64(w.cfg.GameWidth), float64(w.cfg.GameHeight)}) {
		total += f.Mass
	}
	for _, v := range w.Virus.All() {
		total += v.Mass
	}
	for _, m := range w.MassFood.All() {
		total += m.Mass
	}
	for _, p := range w.Roster.InOrder() {
		total += p.TotalMass
	}
	return total
}

// balanceMass tops food up toward cfg.GameMass (capped at cfg.MaxFood) and
// viruses up to cfg.MaxVirus, returning the newly spawned deltas to forward
// as foods_added/virus_added events.
func (w *World) balanceMass() ([]FoodDelta, []VirusWire) {
	deficit := w.cfg.GameMass - w.totalMass()
	addedFood := []FoodDelta{}
	if deficit > 0 {
		n := int(deficit / w.cfg.FoodMass)
		if w.Food.Count()+n > w.cfg.MaxFood {
			n = w.cfg.MaxFood - w.Food.Count()
		}
		if n > 0 {
			addedFood = w.Food.SpawnUpTo(n)
		}
	}
	var addedVirus []VirusWire
	if w.Virus.Count() < w.cfg.MaxVirus {
		addedVirus = w.Virus.SpawnUpTo(w.cfg.MaxVirus - w.Virus.Count())
	}
	return addedFood, addedVirus
}

func randomHue(rng *rand.Rand) int { return rng.Intn(360) }

// spawnPosition picks a starting point for a new player. "farthest" (the
// only initial-position policy the configuration recognizes) samples
// several random candidates and keeps whichever is farthest from every
// existing player; any other policy setting falls back to a single random
// sample.
func (w *World) spawnPosition() Vec2 {
	radius := massToRadius(w.cfg.DefaultPlayerMass)
	candidate := func() Vec2 {
		return Vec2{
			X: radius + w.rng.Float64()*(float64(w.cfg.GameWidth)-2*radius),
			Y: radius + w.rng.Float64()*(float64(w.cfg.GameHeight)-2*radius),
		}
	}
	if w.cfg.NewPlayerInitialPosition != "farthest" || w.Roster.Count() == 0 {
		return candidate()
	}
	best := candidate()
	bestMinDist := -1.0
	for i := 0; i < 10; i++ {
		c := candidate()
		minDist := math.MaxFloat64
		for _, p := range w.Roster.InOrder() {
			if d := distance(c, p.Pos); d < minDist {
				minDist = d
			}
		}
		if minDist > bestMinDist {
			best = c
			bestMinDist = minDist
		}
	}
	return best
}
