package game

import (
	"slices"

	"chessboard/internal/board"
	"chessboard/internal/core"
	"chessboard/internal/engine"
)

// FiftyMoveLimit is the half-move clock value at which the fifty-move rule applies
const FiftyMoveLimit = 100

// State is the read-only game aggregate handed to presentation. It is rebuilt
// in full after every mutation and never patched in place.
type State struct {
	FEN                  string              `json:"fen"`
	Turn                 core.Color          `json:"-"`
	Check                bool                `json:"check"`
	Checkmate            bool                `json:"checkmate"`
	Stalemate            bool                `json:"stalemate"`
	Draw                 bool                `json:"draw"`
	ThreefoldRepetition  bool                `json:"threefoldRepetition"`
	InsufficientMaterial bool                `json:"insufficientMaterial"`
	FiftyMoveRule        bool                `json:"fiftyMoveRule"`
	GameOver             bool                `json:"gameOver"`
	History              []engine.MoveRecord `json:"history"`
	LastMove             *engine.MoveRecord  `json:"lastMove,omitempty"`
	Captured             Captured            `json:"captured"`
	MoveCount            int                 `json:"moveCount"`
}

// Rebuild derives the aggregate from one oracle report and the ledger
func Rebuild(rep engine.Report, ledger *Ledger) State {
	halfMoves, _ := board.HalfMoveClock(rep.FEN)
	fifty := halfMoves >= FiftyMoveLimit

	st := State{
		FEN:                  rep.FEN,
		Turn:                 rep.Turn,
		Check:                rep.Check,
		Checkmate:            rep.Checkmate,
		Stalemate:            rep.Stalemate,
		ThreefoldRepetition:  rep.ThreefoldRepetition,
		InsufficientMaterial: rep.InsufficientMaterial,
		FiftyMoveRule:        fifty,
		Draw:                 rep.Draw || rep.ThreefoldRepetition || rep.InsufficientMaterial || fifty || rep.Stalemate,
		History:              slices.Clone(rep.History),
		Captured:             ledger.Snapshot(),
		MoveCount:            MoveCount(len(rep.History)),
	}
	st.GameOver = st.Checkmate || st.Draw
	if n := len(st.History); n > 0 {
		last := st.History[n-1]
		st.LastMove = &last
	}
	return st
}

// MoveCount is the 1-based full-move number after plies half-moves
func MoveCount(plies int) int {
	return plies/2 + 1
}

// Result describes the outcome in words, empty while the game is running
func (s State) Result() string {
	switch {
	case s.Checkmate:
		return core.OppositeColor(s.Turn).Name() + " wins by checkmate"
	case s.Stalemate:
		return "Draw by stalemate"
	case s.ThreefoldRepetition:
		return "Draw by threefold repetition"
	case s.InsufficientMaterial:
		return "Draw by insufficient material"
	case s.FiftyMoveRule:
		return "Draw by fifty-move rule"
	case s.Draw:
		return "Draw"
	}
	return ""
}

// LastMoveSquares returns the origin and target of the last move, NoSquare when
// there is none
func (s State) LastMoveSquares() (board.Square, board.Square) {
	if s.LastMove == nil {
		return board.NoSquare, board.NoSquare
	}
	return s.LastMove.From, s.LastMove.To
}
