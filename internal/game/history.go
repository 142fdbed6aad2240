package game

import (
	"errors"
	"fmt"

	"chessboard/internal/board"
)

var ErrPlyOutOfRange = errors.New("ply out of range")

// Plies is the number of half-moves played
func (s *Session) Plies() int {
	return len(s.state.History)
}

// PositionAt returns the position after ply half-moves without touching the
// live game. Ply 0 is the starting position.
func (s *Session) PositionAt(ply int) (string, error) {
	fen, ok := s.oracle.PositionAt(ply)
	if !ok {
		return "", fmt.Errorf("%w: %d of %d", ErrPlyOutOfRange, ply, s.Plies())
	}
	return fen, nil
}

// BoardAt renders the position after ply half-moves with the move that
// produced it highlighted
func (s *Session) BoardAt(ply int, flipped bool) (board.View, error) {
	fen, err := s.PositionAt(ply)
	if err != nil {
		return board.View{}, err
	}
	hl := board.NoHighlights()
	if ply > 0 && ply <= len(s.state.History) {
		m := s.state.History[ply-1]
		hl.LastFrom, hl.LastTo = m.From, m.To
	}
	return board.Render(board.Placement(fen), flipped, hl), nil
}
