package main

import "testing"

func closedSessionWithPlayer(id string, playerID PlayerID) *Session {
	return &Session{ID: id, PlayerID: playerID, hasPlayerID: true, closed: true}
}

func closedSession(id string) *Session {
	return &Session{ID: id, closed: true}
}

func TestSessionManagerAddRemove(t *testing.T) {
	sm := NewSessionManager()
	s := closedSessionWithPlayer("sess-1", 1)
	sm.Add(s)
	if sm.Count() != 1 {
		t.Fatalf("expected 1 session, got %d", sm.Count())
	}
	sm.Remove(s.ID)
	if sm.Count() != 0 {
		t.Fatalf("expected 0 sessions after remove, got %d", sm.Count())
	}
}

func TestSessionManagerSendToUnknownPlayer(t *testing.T) {
	sm := NewSessionManager()
	if sm.SendTo(99, EventPongCheck, nil) {
		t.Fatal("expected SendTo to report failure for an unregistered player")
	}
}

func TestSessionManagerBroadcastSkipsClosedSessionsSilently(t *testing.T) {
	sm := NewSessionManager()
	sm.Add(closedSessionWithPlayer("sess-1", 1))
	sm.Add(closedSessionWithPlayer("sess-2", 2))
	// closed sessions no-op on Send; Broadcast must not panic.
	sm.Broadcast(EventPlayerMessage, PlayerChatPayload{Message: "hi", Sender: "alice"})
}

func TestDispatchIgnoresGameplayEventsBeforeAdmission(t *testing.T) {
	s := closedSession("sess-1")
	s.world = &World{Commands: NewCommandQueue()}
	if err := s.dispatch(AnyEventPacket{Event: EventSplit}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.world.Commands.Drain()) != 0 {
		t.Fatal("a pre-welcome gameplay event must not enqueue a command")
	}
}

func TestDispatchHonoursGotItBeforeAdmissionGate(t *testing.T) {
	s := closedSession("sess-1")
	s.world = &World{Commands: NewCommandQueue()}
	// gotit before let_me_in has no player id bound yet: it should attempt
	// the gate logic (and fail validation) rather than being silently
	// dropped by the pre-welcome filter.
	err := s.dispatch(AnyEventPacket{Event: EventGotIt})
	if err != errSessionKicked {
		t.Fatalf("expected gotit with no bound player to be kicked, got %v", err)
	}
}
