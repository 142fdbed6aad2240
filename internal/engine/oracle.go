// Package engine defines the rules oracle boundary and its notnil/chess backed
// implementation. The oracle owns the authoritative game: legality, move
// execution, history and terminal-state detection.
package engine

import (
	"errors"

	"chessboard/internal/board"
	"chessboard/internal/core"
)

var (
	ErrIllegalMove     = errors.New("illegal move")
	ErrInvalidPosition = errors.New("invalid position")
)

// MoveRecord describes one executed ply.
type MoveRecord struct {
	From      board.Square    `json:"-"`
	To        board.Square    `json:"-"`
	Color     core.Color      `json:"-"`
	Piece     board.Piece     `json:"-"`
	Captured  board.Piece     `json:"-"`
	Promotion board.PieceType `json:"-"`
	SAN       string          `json:"san"`
	// Flags follows the usual verbose-history letters: n normal, b double pawn
	// push, c capture, e en passant, k/q castling, p promotion.
	Flags string `json:"flags"`
}

// CapturedColor returns the color of the captured piece, ColorNone if the move
// captured nothing
func (m MoveRecord) CapturedColor() core.Color {
	return m.Captured.Color()
}

// UCI returns the long algebraic form, e.g. e7e8q
func (m MoveRecord) UCI() string {
	return m.From.String() + m.To.String() + m.Promotion.String()
}

// Report is everything the session aggregate reads from the oracle after a
// mutation, taken in one call.
type Report struct {
	FEN                  string
	Turn                 core.Color
	Check                bool
	Checkmate            bool
	Stalemate            bool
	Draw                 bool
	ThreefoldRepetition  bool
	InsufficientMaterial bool
	History              []MoveRecord
}

// Oracle is the rules collaborator a session delegates to. Implementations are
// not required to be safe for concurrent use.
type Oracle interface {
	Position() string
	Turn() core.Color
	Report() Report
	// LegalDestinations returns an empty slice for an invalid or empty origin
	// and for pieces of the side not to move.
	LegalDestinations(from board.Square) []board.Square
	Move(from, to board.Square, promotion board.PieceType) (MoveRecord, error)
	Undo() (MoveRecord, bool)
	Reset()
	Load(fen string) error
	// PositionAt returns the position after ply half-moves, 0 being the start.
	PositionAt(ply int) (string, bool)
}
