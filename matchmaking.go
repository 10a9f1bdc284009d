package main

import (
	"encoding/json"
	"log"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
)

// MatchmakingBridge is the external collaborator interface: report kicks,
// request per-user balances, and send payout notifications to the
// matchmaking sidecar. simulation.go calls it at arm's length and never
// blocks a tick on its result. Transfer reports whether the emit actually
// reached the sidecar so the caller can decide whether a payout is settled
// or must be retried (spec.md §7, "Matchmaking unavailable").
type MatchmakingBridge interface {
	PlayerKicked(playerID PlayerID, port int)
	GetAmount(matchmakingUserID int64, playerID PlayerID)
	Transfer(matchmakingUserID int64, amount float64, port int) bool
}

// AmountUpdate is one inbound userAmount notification, queued for the
// simulation to apply as a CmdBindMatchmaking command at the next tick.
type AmountUpdate struct {
	MatchmakingUserID int64
	GamePlayerID      PlayerID
	Amount            float64
}

// WSMatchmakingBridge is an outbound websocket client to the matchmaking
// sidecar, with a background read loop relaying inbound userAmount
// notifications onto a queue the tick loop drains.
type WSMatchmakingBridge struct {
	writeMu sync.Mutex
	conn    *websocket.Conn

	amountsMu sync.Mutex
	amounts   []AmountUpdate
}

// DialMatchmakingBridge connects to the sidecar and starts its read loop.
func DialMatchmakingBridge(url string) (*WSMatchmakingBridge, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	b := &WSMatchmakingBridge{conn: conn}
	go b.readLoop()
	return b, nil
}

type userAmountEnvelope struct {
	Event string `json:"event"`
	Value struct {
		MatchmakingUserID int64   `json:"matchmaking_user_id"`
		GamePlayerID      string  `json:"game_player_id"`
		Amount            float64 `json:"amount"`
	} `json:"value"`
}

func (b *WSMatchmakingBridge) readLoop() {
	for {
		_, raw, err := b.conn.ReadMessage()
		if err != nil {
			log.Printf("matchmaking: read error: %v", err)
			return
		}
		var env userAmountEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("matchmaking: bad message: %v", err)
			continue
		}
		if env.Event != "userAmount" {
			continue
		}
		gamePlayerID, err := strconv.ParseUint(env.Value.GamePlayerID, 10, 8)
		if err != nil {
			log.Printf("matchmaking: bad game_player_id %q: %v", env.Value.GamePlayerID, err)
			continue
		}
		b.amountsMu.Lock()
		b.amounts = append(b.amounts, AmountUpdate{
			MatchmakingUserID: env.Value.MatchmakingUserID,
			GamePlayerID:      PlayerID(gamePlayerID),
			Amount:            env.Value.Amount,
		})
		b.amountsMu.Unlock()
	}
}

// DrainAmounts returns every userAmount update received since the last
// drain, in arrival order.
func (b *WSMatchmakingBridge) DrainAmounts() []AmountUpdate {
	b.amountsMu.Lock()
	defer b.amountsMu.Unlock()
	drained := b.amounts
	b.amounts = nil
	return drained
}

// send reports whether the frame reached the sidecar; a write error leaves
// the caller free to treat the emit as undelivered and preserve state for
// retry, per spec.md §7's "Matchmaking unavailable" best-effort contract.
func (b *WSMatchmakingBridge) send(event string, value interface{}) bool {
	frame, err := EncodeFrame(event, value)
	if err != nil {
		log.Printf("matchmaking: encode %s: %v", event, err)
		return false
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if err := b.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		log.Printf("matchmaking: send %s: %v", event, err)
		return false
	}
	return true
}

func (b *WSMatchmakingBridge) PlayerKicked(playerID PlayerID, port int) {
	b.send("playerKicked", struct {
		PlayerID PlayerID `json:"player_id"`
		Port     int      `json:"port"`
	}{playerID, port})
}

func (b *WSMatchmakingBridge) GetAmount(matchmakingUserID int64, playerID PlayerID) {
	b.send("getAmount", struct {
		MatchmakingUserID int64    `json:"matchmaking_user_id"`
		PlayerID          PlayerID `json:"player_id"`
	}{matchmakingUserID, playerID})
}

// Transfer reports whether the payout notification reached the sidecar.
func (b *WSMatchmakingBridge) Transfer(matchmakingUserID int64, amount float64, port int) bool {
	return b.send("transfer", struct {
		MatchmakingUserID int64   `json:"matchmaking_user_id"`
		Amount            float64 `json:"amount"`
		Port              int     `json:"port"`
	}{matchmakingUserID, amount, port})
}

// NopMatchmakingBridge is used when no matchmaking sidecar is configured; a
// standalone match has no payout target, so Transfer always reports success
// (there's nothing to retry) while the rest of the calls are no-ops.
type NopMatchmakingBridge struct{}

func (NopMatchmakingBridge) PlayerKicked(PlayerID, int)        {}
func (NopMatchmakingBridge) GetAmount(int64, PlayerID)         {}
func (NopMatchmakingBridge) Transfer(int64, float64, int) bool { return true }
