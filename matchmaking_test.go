package main

import "testing"

func TestNopMatchmakingBridgeIsSafeToCall(t *testing.T) {
	var b MatchmakingBridge = NopMatchmakingBridge{}
	b.PlayerKicked(1, 9000)
	b.GetAmount(42, 1)
	if !b.Transfer(42, 12.5, 9000) {
		t.Fatal("expected the nop bridge to report every transfer as delivered")
	}
}

func TestWSMatchmakingBridgeDrainAmountsEmptiesQueue(t *testing.T) {
	b := &WSMatchmakingBridge{
		amounts: []AmountUpdate{
			{MatchmakingUserID: 1, GamePlayerID: 1, Amount: 10},
			{MatchmakingUserID: 2, GamePlayerID: 2, Amount: 20},
		},
	}
	got := b.DrainAmounts()
	if len(got) != 2 {
		t.Fatalf("expected 2 queued amounts, got %d", len(got))
	}
	if len(b.DrainAmounts()) != 0 {
		t.Fatal("expected the queue to be empty after draining")
	}
}
