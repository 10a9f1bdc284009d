package main

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// Wire framing: every application frame, inbound or outbound, is
// u16_be(length) || utf8_json_payload, where payload is an AnyEventPacket
// and length is its byte length. Reassembly must preserve partial frames
// across reads; a payload over 65535 bytes cannot be framed and must not be
// produced.

const maxFramePayload = 65535

var errFrameTooLarge = errors.New("protocol: payload exceeds 65535 bytes and cannot be framed")

// AnyEventPacket is the single envelope shape for both directions of the
// wire protocol.
type AnyEventPacket struct {
	Event string      `json:"event"`
	Value interface{} `json:"value"`
}

// EncodeFrame marshals value into an AnyEventPacket{event, value} and
// prepends the u16_be length prefix.
func EncodeFrame(event string, value interface{}) ([]byte, error) {
	payload, err := json.Marshal(AnyEventPacket{Event: event, Value: value})
	if err != nil {
		return nil, err
	}
	if len(payload) > maxFramePayload {
		return nil, errFrameTooLarge
	}
	framed := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(framed, uint16(len(payload)))
	copy(framed[2:], payload)
	return framed, nil
}

// FrameReassembler accumulates bytes across reads and yields complete
// frames as they become available, preserving any trailing partial frame.
type FrameReassembler struct {
	buf []byte
}

// Feed appends newly read bytes and extracts every complete frame found so
// far, in order.
func (r *FrameReassembler) Feed(chunk []byte) ([][]byte, error) {
	r.buf = append(r.buf, chunk...)
	var frames [][]byte
	for {
		if len(r.buf) < 2 {
			return frames, nil
		}
		n := int(binary.BigEndian.Uint16(r.buf))
		if len(r.buf) < 2+n {
			return frames, nil
		}
		frames = append(frames, r.buf[2:2+n])
		r.buf = r.buf[2+n:]
	}
}

// DecodeAnyEventPacket parses one frame's payload.
func DecodeAnyEventPacket(payload []byte) (AnyEventPacket, error) {
	var pkt AnyEventPacket
	if err := json.Unmarshal(payload, &pkt); err != nil {
		return pkt, fmt.Errorf("protocol: decode frame: %w", err)
	}
	return pkt, nil
}

// DecodePayload re-decodes an AnyEventPacket.Value (already unmarshaled into
// a generic interface{} by DecodeAnyEventPacket) into a concrete payload
// struct.
func DecodePayload(value interface{}, out interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Inbound event tags.
const (
	EventLetMeIn    = "let_me_in"
	EventGotIt      = "gotit"
	EventRespawn    = "respawn"
	EventPingCheck  = "pingcheck"
	EventMouse      = "0"
	EventEject      = "1"
	EventSplit      = "2"
	EventTeleport   = "3"
	EventCashout    = "4"
	EventPlayerChat = "playerChat"
)

// Outbound event tags.
const (
	EventWelcome         = "welcome"
	EventPlayerInitData  = "player_init_data"
	EventAllInitData     = "all_init_data"
	EventPlayerJoined    = "player_joined"
	EventPlayerSplited   = "player_splited"
	EventPlayerRespawned = "player_respawned"
	EventRespawned       = "respawned"
	EventRIP             = "RIP"
	EventPlayerDied      = "playerDied"
	EventKick            = "kick"
	EventKicked          = "kicked"
	EventLeaderboard     = "leaderboard"
	EventPongCheck       = "pong_check"
	EventPlayerMessage   = "player_message"
	EventGameUpdate      = "game_update"
	EventFoodsAdded      = "foods_added"
	EventVirusAdded      = "virus_added"
	EventMassFoodAdded   = "mass_food_added"
	EventTransfer        = "transfer"
)

// LetMeInPayload is the join request payload.
type LetMeInPayload struct {
	Name   string `json:"name,omitempty"`
	ImgURL string `json:"img_url,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// GotItPayload acknowledges the welcome frame and finalizes join.
type GotItPayload struct {
	UserID string `json:"user_id,omitempty"`
}

// TargetPayload carries the mouse/cursor target.
type TargetPayload struct {
	Target Vec2 `json:"target"`
}

// PlayerChatPayload is an inbound chat line.
type PlayerChatPayload struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

// WelcomePayload is sent once per connection immediately after a valid
// let_me_in.
type WelcomePayload struct {
	Width               int     `json:"width"`
	Height              int     `json:"height"`
	DefaultPlayerMass   float64 `json:"default_player_mass"`
	DefaultMassFood     float64 `json:"default_mass_food"`
	DefaultMassMassFood float64 `json:"default_mass_mass_food"`
	Start               int64   `json:"start"`
}

// CellWire is one cell as it appears on the wire.
type CellWire struct {
	Mass float64 `json:"mass"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// PlayerWire is one player's data as carried in game_update and init frames.
type PlayerWire struct {
	ID    PlayerID   `json:"id"`
	Cells []CellWire `json:"cells"`
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
	Bet   float64    `json:"bet"`
	Won   float64    `json:"won"`
}

// VirusWire is one virus as carried on the wire.
type VirusWire struct {
	ID   VirusID `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Mass float64 `json:"mass"`
}

// MassFoodWire is one mass-food projectile as carried on the wire.
type MassFoodWire struct {
	ID MassFoodID `json:"id"`
	X  float64    `json:"x"`
	Y  float64    `json:"y"`
}

// FoodPair is an (id, hue) tuple for foods_added.
type FoodPair struct {
	ID  FoodID `json:"id"`
	Hue int    `json:"hue"`
}

// AllInitDataPayload is sent once per (re)spawn with every entity currently
// live in the world.
type AllInitDataPayload struct {
	Players   []PlayerWire   `json:"players"`
	Virus     []VirusWire    `json:"virus"`
	MassFoods []MassFoodWire `json:"mass_foods"`
	Foods     []FoodPair     `json:"foods"`
}

// GameUpdatePayload is the per-tick delta frame.
type GameUpdatePayload struct {
	Players      []PlayerWire   `json:"players"`
	Virus        []VirusWire    `json:"virus"`
	MassFood     []MassFoodWire `json:"mass_food"`
	RemovedFoods []FoodID       `json:"removed_foods"`
	RemovedMass  []MassFoodID   `json:"removed_mass"`
	RemovedVirus []VirusID      `json:"removed_virus"`
}

// LeaderboardRow is one leaderboard entry.
type LeaderboardRow struct {
	ID   PlayerID `json:"id"`
	Mass float64  `json:"mass"`
}

// LeaderboardPayload is the sorted top-N leaderboard.
type LeaderboardPayload struct {
	Leaderboard []LeaderboardRow `json:"leaderboard"`
}

// PlayerDiedPayload names the victim and the eater.
type PlayerDiedPayload struct {
	Killed PlayerID `json:"killed"`
	Eater  PlayerID `json:"eater"`
}

// KickPayload carries a human-readable reason a session was kicked.
type KickPayload struct {
	Reason string `json:"reason"`
}

var nicknameRe = regexp.MustCompile(`^\w{0,14}$`)

// validNickname matches the protocol's nickname regex.
func validNickname(name string) bool {
	return nicknameRe.MatchString(name)
}

// validUserID parses as an integer strictly below 10000.
func validUserID(raw string) (int64, bool) {
	if raw == "" {
		return 0, true
	}
	var n int64
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return 0, false
	}
	return n, n >= 0 && n < 10000
}

func validAvatarURL(url string) bool {
	return len(url) < 1000
}
