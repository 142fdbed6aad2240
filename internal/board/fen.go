package board

import (
	"fmt"
	"strconv"
	"strings"

	"chessboard/internal/core"
)

const (
	StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

// Position is the decoded form of a position string.
type Position struct {
	Grid      Grid
	Turn      core.Color
	Castling  string
	EnPassant string
	HalfMove  int
	FullMove  int
}

func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) != 6 {
		return nil, fmt.Errorf("%w: expected 6 fields, got %d", ErrMalformedPosition, len(parts))
	}

	grid, err := ParsePlacement(parts[0])
	if err != nil {
		return nil, err
	}
	p := &Position{Grid: grid}

	turn, ok := core.ParseColor(parts[1])
	if !ok {
		return nil, fmt.Errorf("%w: turn must be 'w' or 'b'", ErrMalformedPosition)
	}
	p.Turn = turn
	p.Castling = parts[2]
	p.EnPassant = parts[3]

	if p.HalfMove, err = strconv.Atoi(parts[4]); err != nil || p.HalfMove < 0 {
		return nil, fmt.Errorf("%w: halfmove counter %q", ErrMalformedPosition, parts[4])
	}
	if p.FullMove, err = strconv.Atoi(parts[5]); err != nil || p.FullMove < 1 {
		return nil, fmt.Errorf("%w: fullmove counter %q", ErrMalformedPosition, parts[5])
	}

	return p, nil
}

func (p *Position) PieceAt(sq Square) Piece {
	return p.Grid.At(sq)
}

// Turn reads the side-to-move field without decoding the whole string
func Turn(fen string) core.Color {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return core.ColorNone
	}
	c, _ := core.ParseColor(fields[1])
	return c
}

// HalfMoveClock reads the fifth field of a position string
func HalfMoveClock(fen string) (int, bool) {
	fields := strings.Fields(fen)
	if len(fields) < 5 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[4])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
