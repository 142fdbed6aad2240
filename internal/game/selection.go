package game

import (
	"chessboard/internal/board"
	"chessboard/internal/engine"
)

// ClickResult reports what a click did.
type ClickResult int

const (
	ClickIgnored ClickResult = iota
	ClickSelected
	ClickReselected
	ClickDeselected
	ClickMoved
	ClickRejected
)

func (r ClickResult) String() string {
	switch r {
	case ClickSelected:
		return "selected"
	case ClickReselected:
		return "reselected"
	case ClickDeselected:
		return "deselected"
	case ClickMoved:
		return "moved"
	case ClickRejected:
		return "rejected"
	default:
		return "ignored"
	}
}

// Changed reports whether the click altered selection or position
func (r ClickResult) Changed() bool {
	return r != ClickIgnored
}

// selection is the Idle / PieceSelected machine. Idle is square == NoSquare.
type selection struct {
	square board.Square
	cache  *LegalityCache
}

func newSelection() selection {
	return selection{square: board.NoSquare, cache: NewLegalityCache()}
}

func (s *selection) idle() bool {
	return !s.square.Valid()
}

func (s *selection) clear() {
	s.square = board.NoSquare
	s.cache.Invalidate()
}

func (s *selection) choose(oracle engine.Oracle, sq board.Square) {
	s.square = sq
	s.cache.Refresh(oracle, sq)
}
