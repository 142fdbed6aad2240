package board

import (
	"errors"
	"fmt"
	"strings"

	"chessboard/internal/core"
)

var (
	ErrInvalidSquare = errors.New("invalid square")
	ErrInvalidCell   = errors.New("invalid cell")
)

// Square is an algebraic coordinate encoded as rank*8 + file, a1 = 0 and h8 = 63.
type Square int8

const NoSquare Square = -1

// NewSquare builds a square from zero-based file and rank indices
func NewSquare(file, rank int) (Square, error) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("%w: file %d rank %d", ErrInvalidSquare, file, rank)
	}
	return Square(rank*8 + file), nil
}

// ParseSquare decodes an algebraic name such as "e4"
func ParseSquare(name string) (Square, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, name)
	}
	return Square(int(s[1]-'1')*8 + int(s[0]-'a')), nil
}

// MustParseSquare is ParseSquare for constant input, it panics on error
func MustParseSquare(name string) Square {
	sq, err := ParseSquare(name)
	if err != nil {
		panic(err)
	}
	return sq
}

func (s Square) Valid() bool {
	return s >= 0 && s < 64
}

func (s Square) File() int {
	return int(s) % 8
}

func (s Square) Rank() int {
	return int(s) / 8
}

// IsDark reports the square color, a1 is dark
func (s Square) IsDark() bool {
	return (s.File()+s.Rank())%2 == 0
}

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// Piece is a FEN piece letter, upper case for white and lower case for black.
type Piece byte

const Empty Piece = 0

// PieceType is the lower case FEN letter of a piece kind.
type PieceType byte

const (
	NoPieceType PieceType = 0
	Pawn        PieceType = 'p'
	Knight      PieceType = 'n'
	Bishop      PieceType = 'b'
	Rook        PieceType = 'r'
	Queen       PieceType = 'q'
	King        PieceType = 'k'
)

// ParsePromotion accepts the four promotion letters in either case
func ParsePromotion(s string) (PieceType, bool) {
	if len(s) != 1 {
		return NoPieceType, false
	}
	switch pt := PieceType(strings.ToLower(s)[0]); pt {
	case Queen, Rook, Bishop, Knight:
		return pt, true
	default:
		return NoPieceType, false
	}
}

func (t PieceType) String() string {
	if t == NoPieceType {
		return ""
	}
	return string(rune(t))
}

// NewPiece returns the FEN letter for a kind and color
func NewPiece(t PieceType, c core.Color) Piece {
	if t == NoPieceType {
		return Empty
	}
	if c == core.ColorWhite {
		return Piece(t - 'a' + 'A')
	}
	return Piece(t)
}

func isPieceLetter(ch byte) bool {
	switch ch {
	case 'p', 'n', 'b', 'r', 'q', 'k', 'P', 'N', 'B', 'R', 'Q', 'K':
		return true
	}
	return false
}

func (p Piece) IsEmpty() bool {
	return p == Empty
}

func (p Piece) Color() core.Color {
	switch {
	case p >= 'A' && p <= 'Z':
		return core.ColorWhite
	case p >= 'a' && p <= 'z':
		return core.ColorBlack
	default:
		return core.ColorNone
	}
}

func (p Piece) Type() PieceType {
	if p.IsEmpty() {
		return NoPieceType
	}
	if p >= 'A' && p <= 'Z' {
		return PieceType(p - 'A' + 'a')
	}
	return PieceType(p)
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return ""
	}
	return string(rune(p))
}
