package main

import "testing"

func TestEncodeFrameRoundTrip(t *testing.T) {
	frame, err := EncodeFrame(EventWelcome, WelcomePayload{Width: 15000, Height: 15000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var r FrameReassembler
	frames, err := r.Feed(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 complete frame, got %d", len(frames))
	}
	pkt, err := DecodeAnyEventPacket(frames[0])
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if pkt.Event != EventWelcome {
		t.Fatalf("expected event %q, got %q", EventWelcome, pkt.Event)
	}
}

func TestFrameReassemblerHoldsPartialFrame(t *testing.T) {
	frame, _ := EncodeFrame(EventPingCheck, nil)
	var r FrameReassembler
	frames, _ := r.Feed(frame[:len(frame)-1])
	if len(frames) != 0 {
		t.Fatalf("expected no complete frames from a truncated feed, got %d", len(frames))
	}
	frames, _ = r.Feed(frame[len(frame)-1:])
	if len(frames) != 1 {
		t.Fatalf("expected the held partial frame to complete, got %d", len(frames))
	}
}

func TestFrameReassemblerMultipleFramesOneRead(t *testing.T) {
	f1, _ := EncodeFrame(EventPingCheck, nil)
	f2, _ := EncodeFrame(EventRespawn, nil)
	var r FrameReassembler
	frames, err := r.Feed(append(append([]byte{}, f1...), f2...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 complete frames, got %d", len(frames))
	}
}

func TestValidNickname(t *testing.T) {
	if !validNickname("") {
		t.Fatal("empty nickname should be valid")
	}
	if !validNickname("alice_123") {
		t.Fatal("word-character nickname should be valid")
	}
	if validNickname("this_name_is_way_too_long") {
		t.Fatal("a 15+ char nickname should be rejected")
	}
	if validNickname("bad name!") {
		t.Fatal("a nickname with spaces/punctuation should be rejected")
	}
}

func TestValidUserID(t *testing.T) {
	if _, ok := validUserID("9999"); !ok {
		t.Fatal("9999 should be a valid user id")
	}
	if _, ok := validUserID("10000"); ok {
		t.Fatal("10000 should be rejected (must be < 10000)")
	}
	if _, ok := validUserID("not-a-number"); ok {
		t.Fatal("non-numeric user id should be rejected")
	}
}

func TestValidAvatarURL(t *testing.T) {
	if !validAvatarURL("https://example.com/avatar.png") {
		t.Fatal("a short URL should be valid")
	}
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'a'
	}
	if validAvatarURL(string(long)) {
		t.Fatal("a 1000-byte URL should be rejected")
	}
}
