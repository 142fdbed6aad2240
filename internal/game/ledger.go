package game

import (
	"chessboard/internal/board"
	"chessboard/internal/core"
)

// Ledger records captured pieces per color as stacks, so undo pops exactly
// what the move pushed.
type Ledger struct {
	white []board.Piece
	black []board.Piece
}

// Captured is a copy of the ledger for presentation.
type Captured struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

// Push records a piece of color c captured by the opponent. The stored code is
// normalized to c's letter case. Empty pieces and ColorNone are ignored.
func (l *Ledger) Push(c core.Color, p board.Piece) {
	stack := l.stack(c)
	if stack == nil || p.IsEmpty() {
		return
	}
	*stack = append(*stack, board.NewPiece(p.Type(), c))
}

// Pop removes the most recent capture of color c
func (l *Ledger) Pop(c core.Color) (board.Piece, bool) {
	stack := l.stack(c)
	if stack == nil || len(*stack) == 0 {
		return board.Empty, false
	}
	n := len(*stack)
	p := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return p, true
}

func (l *Ledger) Clear() {
	l.white = nil
	l.black = nil
}

func (l *Ledger) Len(c core.Color) int {
	if s := l.stack(c); s != nil {
		return len(*s)
	}
	return 0
}

func (l *Ledger) Snapshot() Captured {
	return Captured{White: codes(l.white), Black: codes(l.black)}
}

func (l *Ledger) stack(c core.Color) *[]board.Piece {
	switch c {
	case core.ColorWhite:
		return &l.white
	case core.ColorBlack:
		return &l.black
	}
	return nil
}

func codes(pieces []board.Piece) []string {
	out := make([]string, len(pieces))
	for i, p := range pieces {
		out[i] = p.String()
	}
	return out
}
