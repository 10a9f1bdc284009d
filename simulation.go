package main

import (
	"log"
	"math"
	"time"
)

// TickRate is the simulation's fixed cadence.
const TickRate = 30

// amountDrainer is implemented by matchmaking bridges that buffer inbound
// userAmount notifications for the tick loop to apply; NopMatchmakingBridge
// does not implement it, which is fine — a standalone match just never
// receives bet bindings.
type amountDrainer interface {
	DrainAmounts() []AmountUpdate
}

// Simulation drives World forward at TickRate and broadcasts the resulting
// delta frame through SessionManager. It is the one place the tick sequence
// from start to finish is assembled; every step below corresponds to one
// numbered step of the fixed ordering.
type Simulation struct {
	world    *World
	sessions *SessionManager
}

func NewSimulation(world *World, sessions *SessionManager) *Simulation {
	return &Simulation{world: world, sessions: sessions}
}

// Run blocks, ticking at TickRate until the process exits.
func (s *Simulation) Run() {
	ticker := time.NewTicker(time.Second / TickRate)
	defer ticker.Stop()
	log.Printf("simulation: running at %d ticks/sec", TickRate)
	for range ticker.C {
		started := time.Now()
		s.tick()
		RecordTick(time.Since(started))
	}
}

func (s *Simulation) tick() {
	w := s.world
	w.mu.Lock()
	w.TickCount++

	// 1. Drain command queue.
	s.drainMatchmakingAmounts()
	s.drainCommands()

	// 2. Periodic housekeeping.
	if w.TickCount%int64(w.cfg.NetworkUpdateFactor) == 0 {
		s.housekeeping()
	}

	// 3. Tick mass-food.
	w.MassFood.Tick(float64(w.cfg.GameWidth), float64(w.cfg.GameHeight))

	// 4. Tick viruses, apply shoot requests.
	virusResult := w.Virus.Tick(w.MassFood)
	w.Virus.ApplyShootRequests(virusResult.ShootRequests)
	removedMass := append([]MassFoodID{}, virusResult.EatenMassFoodIDs...)

	// 5. Player-vs-player collisions.
	dead := s.resolvePlayerCollisions()

	// 6. Tick each surviving player.
	removedFood, moreMass, removedVirus := s.tickSurvivors(dead)
	removedMass = append(removedMass, moreMass...)

	// 7. Remove dead players.
	for id := range dead {
		w.Roster.Remove(id)
	}

	// 8. Compose delta frame.
	frame := s.composeFrame(removedFood, removedMass, removedVirus)
	playerCount, foodCount, virusCount, massFoodCount := w.Roster.Count(), w.Food.Count(), w.Virus.Count(), w.MassFood.Count()
	w.mu.Unlock()

	s.sessions.Broadcast(EventGameUpdate, frame)
	UpdateWorldGauges(playerCount, foodCount, virusCount, massFoodCount)

	// 9. Sleep for the remainder of the interval — handled by the ticker in Run.
}

// drainMatchmakingAmounts folds any inbound userAmount notifications into
// CmdBindMatchmaking commands so they are applied in the same FIFO pass as
// every other command.
func (s *Simulation) drainMatchmakingAmounts() {
	drainer, ok := s.world.Matchmaking.Bridge.(amountDrainer)
	if !ok {
		return
	}
	for _, au := range drainer.DrainAmounts() {
		s.world.Commands.Push(Command{
			Kind:              CmdBindMatchmaking,
			PlayerID:          au.GamePlayerID,
			MatchmakingUserID: au.MatchmakingUserID,
			Bet:               au.Amount,
		})
	}
}

func (s *Simulation) drainCommands() {
	w := s.world
	for _, cmd := range w.Commands.Drain() {
		switch cmd.Kind {
		case CmdSetTarget:
			if p, ok := w.Roster.Get(cmd.PlayerID); ok {
				p.Target = cmd.Target
			}
		case CmdRespawn:
			s.respawnPlayer(cmd.PlayerID)
		case CmdTeleport:
			s.teleportPlayer(cmd.PlayerID)
		case CmdEject:
			s.ejectPlayer(cmd.PlayerID)
		case CmdSplit:
			if p, ok := w.Roster.Get(cmd.PlayerID); ok {
				p.UserSplit(w.cfg.LimitSplit, w.cfg.DefaultPlayerMass)
				s.sessions.SendTo(cmd.PlayerID, EventPlayerSplited, nil)
			}
		case CmdCashout:
			s.cashoutPlayer(cmd.PlayerID)
		case CmdHeartbeat:
			if p, ok := w.Roster.Get(cmd.PlayerID); ok {
				p.SetLastHeartbeat(w.TickCount)
			}
		case CmdBindMatchmaking:
			if p, ok := w.Roster.Get(cmd.PlayerID); ok {
				p.MatchmakingUser = cmd.MatchmakingUserID
				p.Bet = cmd.Bet
			}
		case CmdKickPlayer:
			s.sessions.Kick(cmd.PlayerID, cmd.Reason)
			w.Matchmaking.Bridge.PlayerKicked(cmd.PlayerID, w.Matchmaking.Port)
			w.Roster.Remove(cmd.PlayerID)
		case CmdRemovePlayer:
			w.Roster.Remove(cmd.PlayerID)
		}
	}
}

// respawnPlayer resets a player back to a single starting cell at a fresh
// spawn point, preserving identity (id, name, hue, wager) but nothing of its
// prior size or position.
func (s *Simulation) respawnPlayer(playerID PlayerID) {
	w := s.world
	p, ok := w.Roster.Get(playerID)
	if !ok {
		return
	}
	p.Spawn(w.spawnPosition(), w.cfg.DefaultPlayerMass, MinSpeed)
	s.sessions.SendTo(playerID, EventRespawned, w.PlayerWireOf(p))
	s.sessions.Broadcast(EventPlayerRespawned, w.PlayerWireOf(p))
}

// teleportPlayer relocates a player's whole blob to a fresh spawn point
// without touching its mass or cell count, the way the original's
// RecvEvent::Teleport handler repositions rather than respawns.
func (s *Simulation) teleportPlayer(playerID PlayerID) {
	w := s.world
	p, ok := w.Roster.Get(playerID)
	if !ok {
		return
	}
	dest := w.spawnPosition()
	delta := Vec2{X: dest.X - p.Pos.X, Y: dest.Y - p.Pos.Y}
	for _, c := range p.Cells {
		c.Pos.X += delta.X
		c.Pos.Y += delta.Y
	}
	p.Pos = dest
}

// ejectPlayer implements the "w" mass-ejection command: a no-op below the
// configured minimum cell mass, otherwise every cell heavy enough to afford
// it fires FireFood mass out as a fresh MassFood.
func (s *Simulation) ejectPlayer(playerID PlayerID) {
	w := s.world
	p, ok := w.Roster.Get(playerID)
	if !ok {
		return
	}
	if p.TotalMass < w.cfg.MinCellMass() {
		return
	}
	for ci, c := range p.Cells {
		if c.Mass < w.cfg.MinCellMass() {
			continue
		}
		m := w.MassFood.Spawn(p.Pos, p.Target, c.Pos, c.Radius, p.Hue, w.cfg.FireFood)
		p.ChangeCellMass(ci, -w.cfg.FireFood)
		s.sessions.Broadcast(EventMassFoodAdded, MassFoodWire{ID: m.ID, X: m.Pos.X, Y: m.Pos.Y})
	}
}

// cashoutPlayer settles a player's accumulated winnings through the
// matchmaking bridge and sends it back to a fresh spawn — the wager
// equivalent of a respawn, grounded on the same transfer/won bookkeeping
// §4.7 step 5 uses for a kill payout (an Open Question in spec.md §9, since
// cashout's own semantics are only named by its wire tag there).
func (s *Simulation) cashoutPlayer(playerID PlayerID) {
	w := s.world
	p, ok := w.Roster.Get(playerID)
	if !ok {
		return
	}
	if p.Won > 0 {
		if w.Matchmaking.Bridge.Transfer(p.MatchmakingUser, p.Won, w.Matchmaking.Port) {
			p.Bet = 0
			p.Won = 0
		}
	}
	p.Spawn(w.spawnPosition(), w.cfg.DefaultPlayerMass, MinSpeed)
	s.sessions.SendTo(playerID, EventRespawned, w.PlayerWireOf(p))
}

// housekeeping runs every NetworkUpdateFactor ticks: rebalance the world's
// mass budget, broadcast the leaderboard, and apply per-player mass decay.
func (s *Simulation) housekeeping() {
	w := s.world
	addedFood, addedVirus := w.balanceMass()
	if len(addedFood) > 0 {
		foods := make([]FoodPair, 0, len(addedFood))
		for _, f := range addedFood {
			foods = append(foods, FoodPair{ID: f.ID, Hue: f.Hue})
		}
		s.sessions.Broadcast(EventFoodsAdded, foods)
	}
	if len(addedVirus) > 0 {
		s.sessions.Broadcast(EventVirusAdded, addedVirus)
	}

	rows := make([]LeaderboardRow, 0, 10)
	for _, p := range w.Roster.Leaderboard(10) {
		rows = append(rows, LeaderboardRow{ID: p.ID, Mass: p.TotalMass})
	}
	s.sessions.Broadcast(EventLeaderboard, LeaderboardPayload{Leaderboard: rows})

	for _, p := range w.Roster.InOrder() {
		p.LoseMassIfNeeded(w.cfg.MassLossRate, w.cfg.DefaultPlayerMass, w.cfg.MinMassLoss)
	}
}

// resolvePlayerCollisions runs the (i < j) pair pass over the stable roster
// order, resolving every cell-vs-cell eat between two different players'
// cell lists until no more remain for that pair, and returns the set of
// players killed this tick.
func (s *Simulation) resolvePlayerCollisions() map[PlayerID]bool {
	w := s.world
	players := w.Roster.InOrder()
	dead := make(map[PlayerID]bool)

	for i := 0; i < len(players); i++ {
		a := players[i]
		if dead[a.ID] {
			continue
		}
		for j := i + 1; j < len(players); j++ {
			b := players[j]
			if dead[b.ID] {
				continue
			}
			for {
				ate, aDied, bDied := eatOnce(a, b)
				if !ate {
					break
				}
				if aDied {
					dead[a.ID] = true
					s.killPlayer(a, b)
					break
				}
				if bDied {
					dead[b.ID] = true
					s.killPlayer(b, a)
					break
				}
			}
		}
	}
	return dead
}

// eatOnce resolves at most one cell-vs-cell eat between two different
// players, per checkWhoAteWhom's three-valued result. A cell index becoming
// stale after a removal is fine — the caller re-scans from scratch on the
// next call, and the loop always terminates since a losing player's cell
// count strictly shrinks.
func eatOnce(a, b *Player) (ate, aDied, bDied bool) {
	for ai := 0; ai < len(a.Cells); ai++ {
		for bi := 0; bi < len(b.Cells); bi++ {
			switch checkWhoAteWhom(a.Cells[ai], b.Cells[bi]) {
			case 2:
				a.ChangeCellMass(ai, b.Cells[bi].Mass)
				return true, false, b.RemoveCell(bi)
			case 1:
				b.ChangeCellMass(bi, a.Cells[ai].Mass)
				return true, a.RemoveCell(ai), false
			}
		}
	}
	return false, false, false
}

// killPlayer emits RIP/playerDied and settles the wager once victim has
// reached zero cells.
func (s *Simulation) killPlayer(victim, eater *Player) {
	s.sessions.SendTo(victim.ID, EventRIP, nil)
	s.sessions.Broadcast(EventPlayerDied, PlayerDiedPayload{Killed: victim.ID, Eater: eater.ID})
	s.settleWager(eater, victim)
}

// settleWager applies the min(eater.bet, victim.bet) transfer rule and pays
// out the victim's remaining winnings through the matchmaking bridge.
func (s *Simulation) settleWager(eater, victim *Player) {
	w := s.world
	transfer := math.Min(eater.Bet, victim.Bet)
	eater.Won += transfer
	if eater.Bet < victim.Bet {
		victim.Won += victim.Bet - transfer
	}
	if victim.Won > 0 {
		if w.Matchmaking.Bridge.Transfer(victim.MatchmakingUser, victim.Won, w.Matchmaking.Port) {
			victim.Bet = 0
			victim.Won = 0
		}
	}
}

// virusEdibleBy mirrors MassFood.canBeEatenBy's 1.1x margin rule for
// cell-vs-virus eating.
func virusEdibleBy(cellMass float64, cellPos Vec2, cellRadius float64, v *Virus) bool {
	if !touches(cellPos, cellRadius, v.Pos, v.Radius) {
		return false
	}
	return cellMass > v.Mass*1.1
}

// tickSurvivors runs step 6 over every player not already killed this tick:
// heartbeat-timeout detection, movement, food/mass-food/virus consumption,
// and the one-split-per-cell-per-tick virus_split pass.
func (s *Simulation) tickSurvivors(dead map[PlayerID]bool) (removedFood []FoodID, removedMass []MassFoodID, removedVirus []VirusID) {
	w := s.world
	cfg := w.cfg
	initMassLog := cfg.InitMassLog()

	for _, p := range w.Roster.InOrder() {
		if dead[p.ID] {
			continue
		}

		if w.TickCount-p.LastHeartbeatTick > cfg.MaxHeartbeatInterval {
			w.Commands.Push(Command{Kind: CmdKickPlayer, PlayerID: p.ID, Reason: "heartbeat timeout"})
			continue
		}

		p.MoveCells(w.TickCount, cfg.SlowBase, initMassLog, cfg.GameWidth, cfg.GameHeight)

		splitCells := map[int]bool{}
		for ci, cell := range p.Cells {
			view := Rect{
				X: cell.Pos.X - cell.Radius, Y: cell.Pos.Y - cell.Radius,
				W: cell.Radius * 2, H: cell.Radius * 2,
			}
			for _, food := range w.Food.Retrieve(view) {
				if !touches(cell.Pos, cell.Radius, Vec2{X: food.X, Y: food.Y}, massToRadius(food.Mass)) {
					continue
				}
				if len(w.Food.Delete([]FoodID{food.ID})) == 0 {
					continue
				}
				p.ChangeCellMass(ci, food.Mass)
				removedFood = append(removedFood, food.ID)
			}

			for _, m := range w.MassFood.All() {
				if !m.canBeEatenBy(cell.Mass, cell.Pos, cell.Radius) {
					continue
				}
				p.ChangeCellMass(ci, m.Mass)
				w.MassFood.Remove(m.ID)
				removedMass = append(removedMass, m.ID)
			}

			for _, v := range w.Virus.All() {
				if !virusEdibleBy(cell.Mass, cell.Pos, cell.Radius, v) {
					continue
				}
				p.ChangeCellMass(ci, v.Mass)
				w.Virus.Delete(v.ID)
				removedVirus = append(removedVirus, v.ID)
				splitCells[ci] = true
			}
		}

		if len(splitCells) > 0 {
			indexes := make([]int, 0, len(splitCells))
			for ci := range splitCells {
				indexes = append(indexes, ci)
			}
			p.VirusSplit(indexes, cfg.LimitSplit, cfg.DefaultPlayerMass)
		}

		p.RecalculateTotalMass()
		p.RecalculateRatio()
	}
	return removedFood, removedMass, removedVirus
}

// composeFrame builds the per-tick delta frame broadcast to every client.
func (s *Simulation) composeFrame(removedFood []FoodID, removedMass []MassFoodID, removedVirus []VirusID) GameUpdatePayload {
	w := s.world
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
	return GameUpdatePayload{
		Players:      players,
		Virus:        viruses,
		MassFood:     massFoods,
		RemovedFoods: removedFood,
		RemovedMass:  removedMass,
		RemovedVirus: removedVirus,
	}
}
