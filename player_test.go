package main

import "testing"

func newTestPlayer() *Player {
	p := NewPlayer(1, "alice", "", 0, 100)
	p.Spawn(Vec2{500, 500}, 10, MinSpeed)
	p.ScreenWidth = 1920
	p.ScreenHeight = 1080
	return p
}

func TestPlayerSplitCellCapsToAffordablePieces(t *testing.T) {
	p := newTestPlayer()
	p.Cells[0].setMass(25) // below min_cell_mass required for a real split, but > default mass
	p.UserSplit(16, 10)
	if len(p.Cells) != 2 {
		t.Fatalf("expected exactly 2 cells after splitting a mass-25 cell with default mass 10, got %d", len(p.Cells))
	}
	total := 0.0
	for _, c := range p.Cells {
		total += c.Mass
	}
	if total < 24.9 || total > 25.1 {
		t.Fatalf("expected total mass conserved around 25, got %f", total)
	}
}

func TestPlayerSplitCellNoOpBelowDefaultMass(t *testing.T) {
	p := newTestPlayer()
	p.Cells[0].setMass(5)
	p.UserSplit(16, 10)
	if len(p.Cells) != 1 {
		t.Fatalf("expected no split for a cell below default mass, got %d cells", len(p.Cells))
	}
}

func TestPlayerRecalculateRatioFloor(t *testing.T) {
	p := newTestPlayer()
	p.TotalMass = 1_000_000
	for i := 0; i < 10; i++ {
		for j := 0; j < 16; j++ {
			p.Cells = append(p.Cells, newCell(Vec2{}, 10, MinSpeed, true, nil))
		}
		p.RecalculateRatio()
	}
	if p.Ratio < RecalcRatioFloor {
		t.Fatalf("ratio should never go below the floor, got %f", p.Ratio)
	}
}

func TestPlayerMergeCollidingCellsRespectsTimer(t *testing.T) {
	p := newTestPlayer()
	p.Cells = []*Cell{
		newCell(Vec2{0, 0}, 20, MinSpeed, true, nil),
		newCell(Vec2{1, 0}, 20, MinSpeed, true, nil),
	}
	p.SetLastSplit(0, 1)
	p.MergeCollidingCells(0)
	if len(p.Cells) != 2 {
		t.Fatal("cells should not merge before the merge timer elapses")
	}
	p.MergeCollidingCells(p.TimeToMergeTick + 1)
	if len(p.Cells) != 1 {
		t.Fatalf("overlapping cells should merge once the timer elapses, got %d cells", len(p.Cells))
	}
}

func TestCheckWhoAteWhomPicksSmaller(t *testing.T) {
	big := newCell(Vec2{0, 0}, 1000, MinSpeed, true, nil)
	small := newCell(Vec2{1, 0}, 10, MinSpeed, true, nil)
	if checkWhoAteWhom(big, small) != 2 {
		t.Fatal("expected the bigger cell to eat the smaller one")
	}
	if checkWhoAteWhom(small, big) != 1 {
		t.Fatal("expected the bigger cell (as second argument) to still be recognized as the eater")
	}
}

func TestCheckWhoAteWhomNoOverlap(t *testing.T) {
	a := newCell(Vec2{0, 0}, 10, MinSpeed, true, nil)
	b := newCell(Vec2{10000, 10000}, 10, MinSpeed, true, nil)
	if checkWhoAteWhom(a, b) != 0 {
		t.Fatal("expected no collision result for cells far apart")
	}
}

func TestCheckWhoAteWhomRequiresMassMargin(t *testing.T) {
	a := newCell(Vec2{0, 0}, 100, MinSpeed, true, nil)
	b := newCell(Vec2{0, 0}, 100, MinSpeed, true, nil)
	if checkWhoAteWhom(a, b) != 0 {
		t.Fatal("equal mass/radius cells must not resolve to an eat")
	}
}
