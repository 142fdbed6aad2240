package game

import (
	"testing"

	"chessboard/internal/board"
	"chessboard/internal/core"
	"chessboard/internal/engine"

	"github.com/google/go-cmp/cmp"
)

func TestLegalityCache(t *testing.T) {
	o := &countingOracle{Rules: engine.New()}
	c := NewLegalityCache()

	if c.Contains(sq("e2"), sq("e4")) {
		t.Error("empty cache contains e2e4")
	}

	c.Refresh(o, sq("e2"))
	if o.destCalls != 1 {
		t.Fatalf("Refresh made %d oracle calls", o.destCalls)
	}

	tests := []struct {
		origin, dest string
		want         bool
	}{
		{"e2", "e3", true},
		{"e2", "e4", true},
		{"e2", "e5", false},
		{"d2", "d4", false},
	}
	for _, tt := range tests {
		if got := c.Contains(sq(tt.origin), sq(tt.dest)); got != tt.want {
			t.Errorf("Contains(%s, %s) = %v, want %v", tt.origin, tt.dest, got, tt.want)
		}
	}
	if o.destCalls != 1 {
		t.Errorf("Contains reached the oracle: %d calls", o.destCalls)
	}
	if diff := cmp.Diff(squares("e3", "e4"), c.Destinations()); diff != "" {
		t.Errorf("Destinations mismatch (-want +got):\n%s", diff)
	}

	c.Invalidate()
	if c.Contains(sq("e2"), sq("e4")) || len(c.Destinations()) != 0 || c.Origin() != board.NoSquare {
		t.Error("cache not empty after Invalidate")
	}
}

func TestLedgerStacks(t *testing.T) {
	var l Ledger

	l.Push(core.ColorBlack, 'P') // normalized to the captured color
	l.Push(core.ColorBlack, 'n')
	l.Push(core.ColorWhite, 'q')
	l.Push(core.ColorNone, 'r')
	l.Push(core.ColorWhite, board.Empty)

	want := Captured{White: []string{"Q"}, Black: []string{"p", "n"}}
	if diff := cmp.Diff(want, l.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	if p, ok := l.Pop(core.ColorBlack); !ok || p != 'n' {
		t.Errorf("Pop(black) = %q, %v; want n", p, ok)
	}
	if l.Len(core.ColorBlack) != 1 || l.Len(core.ColorWhite) != 1 {
		t.Errorf("lengths = %d/%d", l.Len(core.ColorWhite), l.Len(core.ColorBlack))
	}

	snap := l.Snapshot()
	snap.Black[0] = "x"
	if l.Snapshot().Black[0] != "p" {
		t.Error("snapshot aliases ledger storage")
	}

	l.Clear()
	if _, ok := l.Pop(core.ColorWhite); ok {
		t.Error("Pop after Clear succeeded")
	}
}

func TestRebuildDrawFlags(t *testing.T) {
	var l Ledger
	tests := []struct {
		name string
		rep  engine.Report
		draw bool
		over bool
	}{
		{"running", engine.Report{FEN: board.StartingFEN}, false, false},
		{"checkmate", engine.Report{FEN: board.StartingFEN, Checkmate: true, Check: true}, false, true},
		{"stalemate", engine.Report{FEN: board.StartingFEN, Stalemate: true}, true, true},
		{"threefold", engine.Report{FEN: board.StartingFEN, ThreefoldRepetition: true}, true, true},
		{"insufficient", engine.Report{FEN: board.StartingFEN, InsufficientMaterial: true}, true, true},
		{"oracle draw", engine.Report{FEN: board.StartingFEN, Draw: true}, true, true},
		{"fifty", engine.Report{FEN: "8/8/8/8/8/8/8/K6k w - - 100 90"}, true, true},
		{"no clock", engine.Report{FEN: "8/8/8/8/8/8/8/K6k"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Rebuild(tt.rep, &l)
			if st.Draw != tt.draw || st.GameOver != tt.over {
				t.Errorf("draw %v over %v, want %v %v", st.Draw, st.GameOver, tt.draw, tt.over)
			}
		})
	}
}
