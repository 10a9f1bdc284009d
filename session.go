package main

import (
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// errSessionKicked breaks the read loop after a kick has already been sent;
// it is never surfaced outside this file.
var errSessionKicked = errors.New("session: kicked")

// Session owns one connected client's transport. It decodes the framed byte
// stream into AnyEventPackets and dispatches them, enforcing the
// pre-welcome/post-welcome gate: before a player is admitted (after gotit),
// only let_me_in and gotit are honoured.
type Session struct {
	ID          string
	PlayerID    PlayerID
	hasPlayerID bool

	ws    *websocket.Conn
	world *World
	sm    *SessionManager

	writeMu sync.Mutex
	reasm   FrameReassembler

	admitted bool
	closed   bool
}

// NewSession wraps an accepted WebSocket connection.
func NewSession(ws *websocket.Conn, world *World, sm *SessionManager) *Session {
	return &Session{
		ID:    uuid.New().String(),
		ws:    ws,
		world: world,
		sm:    sm,
	}
}

// Send frames value under the event tag and writes it to the client.
func (s *Session) Send(event string, value interface{}) error {
	frame, err := EncodeFrame(event, value)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return nil
	}
	return s.ws.WriteMessage(websocket.BinaryMessage, frame)
}

// Close marks the session closed and releases the transport.
func (s *Session) Close() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.ws.Close()
}

// kick emits a kick frame with reason and terminates the session.
func (s *Session) kick(reason string) error {
	_ = s.Send(EventKick, KickPayload{Reason: reason})
	s.Close()
	return errSessionKicked
}

// touch enqueues a heartbeat bump for the tick loop to apply at step 1.
func (s *Session) touch() {
	if !s.hasPlayerID {
		return
	}
	s.world.Commands.Push(Command{Kind: CmdHeartbeat, PlayerID: s.PlayerID})
}

// ReadLoop consumes frames from the WebSocket until it disconnects or is
// kicked, dispatching each decoded packet. On return its own deferred
// cleanup has already enqueued CmdRemovePlayer and removed the session.
func (s *Session) ReadLoop() {
	defer func() {
		if s.hasPlayerID {
			s.world.Commands.Push(Command{Kind: CmdRemovePlayer, PlayerID: s.PlayerID})
		}
		s.sm.Remove(s.ID)
		s.Close()
	}()

	for {
		_, raw, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("session %s: read error: %v", s.ID, err)
			}
			return
		}

		frames, err := s.reasm.Feed(raw)
		if err != nil {
			log.Printf("session %s: reassembly error: %v", s.ID, err)
			continue
		}

		for _, payload := range frames {
			pkt, err := DecodeAnyEventPacket(payload)
			if err != nil {
				log.Printf("session %s: bad frame: %v", s.ID, err)
				continue
			}
			if dispatchErr := s.dispatch(pkt); dispatchErr != nil {
				return
			}
		}
	}
}

func (s *Session) dispatch(pkt AnyEventPacket) error {
	if !s.admitted && pkt.Event != EventLetMeIn && pkt.Event != EventGotIt {
		return nil
	}

	switch pkt.Event {
	case EventLetMeIn:
		return s.handleLetMeIn(pkt.Value)
	case EventGotIt:
		return s.handleGotIt()
	case EventPingCheck:
		return s.Send(EventPongCheck, nil)
	case EventRespawn:
		s.touch()
		s.world.Commands.Push(Command{Kind: CmdRespawn, PlayerID: s.PlayerID})
	case EventMouse:
		var p TargetPayload
		if err := DecodePayload(pkt.Value, &p); err != nil {
			return nil
		}
		s.touch()
		s.world.Commands.Push(Command{Kind: CmdSetTarget, PlayerID: s.PlayerID, Target: p.Target})
	case EventEject:
		s.touch()
		s.world.Commands.Push(Command{Kind: CmdEject, PlayerID: s.PlayerID})
	case EventSplit:
		s.touch()
		s.world.Commands.Push(Command{Kind: CmdSplit, PlayerID: s.PlayerID})
	case EventTeleport:
		s.touch()
		s.world.Commands.Push(Command{Kind: CmdTeleport, PlayerID: s.PlayerID})
	case EventCashout:
		s.touch()
		s.world.Commands.Push(Command{Kind: CmdCashout, PlayerID: s.PlayerID})
	case EventPlayerChat:
		var p PlayerChatPayload
		if err := DecodePayload(pkt.Value, &p); err != nil {
			return nil
		}
		s.touch()
		s.sm.Broadcast(EventPlayerMessage, p)
	default:
		log.Printf("session %s: unhandled event %q", s.ID, pkt.Event)
	}
	return nil
}

func (s *Session) handleLetMeIn(raw interface{}) error {
	var p LetMeInPayload
	if err := DecodePayload(raw, &p); err != nil {
		return s.kick("malformed let_me_in payload")
	}
	if !validNickname(p.Name) {
		return s.kick("invalid nickname")
	}
	if !validAvatarURL(p.ImgURL) {
		return s.kick("avatar url too long")
	}
	matchmakingUser, ok := validUserID(p.UserID)
	if !ok {
		return s.kick("invalid user id")
	}

	player := s.world.AddPlayer(p.Name, p.ImgURL, matchmakingUser)
	s.PlayerID = player.ID
	s.hasPlayerID = true

	cfg := s.world.cfg
	return s.Send(EventWelcome, WelcomePayload{
		Width:               cfg.GameWidth,
		Height:              cfg.GameHeight,
		DefaultPlayerMass:   cfg.DefaultPlayerMass,
		DefaultMassFood:     cfg.FoodMass,
		DefaultMassMassFood: cfg.FireFood,
		Start:               s.world.StartedAt,
	})
}

func (s *Session) handleGotIt() error {
	if !s.hasPlayerID {
		return s.kick("gotit before let_me_in")
	}
	if s.admitted {
		return nil
	}
	s.admitted = true
	s.sm.Add(s)

	wire, ok := s.world.PlayerWireByID(s.PlayerID)
	if !ok {
		return s.kick("player no longer exists")
	}

	if err := s.Send(EventPlayerInitData, wire); err != nil {
		return nil
	}
	if err := s.Send(EventAllInitData, s.world.Snapshot()); err != nil {
		return nil
	}
	s.sm.Broadcast(EventPlayerJoined, wire)
	return nil
}

// SessionManager tracks every admitted session, keyed by session id, so the
// simulation and other sessions can address or broadcast to live clients.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byPlayer map[PlayerID]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		byPlayer: make(map[PlayerID]*Session),
	}
}

// Add registers an admitted session under both its own id and its player id.
func (m *SessionManager) Add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	if s.hasPlayerID {
		m.byPlayer[s.PlayerID] = s
	}
}

// Remove drops a session on disconnect.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		delete(m.byPlayer, s.PlayerID)
	}
	delete(m.sessions, id)
}

// Count returns the number of admitted sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Broadcast sends an event to every admitted session.
func (m *SessionManager) Broadcast(event string, value interface{}) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		_ = s.Send(event, value)
	}
}

// SendTo delivers an event to a single player's session, if connected.
func (m *SessionManager) SendTo(playerID PlayerID, event string, value interface{}) bool {
	m.mu.RLock()
	s, ok := m.byPlayer[playerID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return s.Send(event, value) == nil
}

// Kick delivers a kick frame and closes the named player's session, used by
// the simulation's own heartbeat-timeout path.
func (m *SessionManager) Kick(playerID PlayerID, reason string) {
	m.mu.RLock()
	s, ok := m.byPlayer[playerID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	_ = s.Send(EventKick, KickPayload{Reason: reason})
	s.Close()
}
