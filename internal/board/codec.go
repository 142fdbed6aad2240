package board

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedPosition = errors.New("malformed position")

// Grid holds one piece per square, indexed by Square.
type Grid [64]Piece

func (g *Grid) At(sq Square) Piece {
	if !sq.Valid() {
		return Empty
	}
	return g[sq]
}

// Placement returns the piece-placement field of a position string
func Placement(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// PieceAt returns the occupant of sq in a placement field. Only the rank holding
// sq is walked. A malformed rank, a wrong rank count or an invalid square all
// read as Empty.
func PieceAt(placement string, sq Square) Piece {
	if !sq.Valid() {
		return Empty
	}
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return Empty
	}
	rank := ranks[7-sq.Rank()]
	if _, err := rankWidth(rank); err != nil {
		return Empty
	}

	file := sq.File()
	col := 0
	for i := 0; i < len(rank) && col <= file; i++ {
		ch := rank[i]
		if ch >= '1' && ch <= '8' {
			col += int(ch - '0')
			continue
		}
		if col == file {
			return Piece(ch)
		}
		col++
	}
	return Empty
}

// rankWidth validates one rank and returns its column count, which must be 8
func rankWidth(rank string) (int, error) {
	col := 0
	for i := 0; i < len(rank); i++ {
		ch := rank[i]
		switch {
		case ch >= '1' && ch <= '8':
			col += int(ch - '0')
		case isPieceLetter(ch):
			col++
		default:
			return col, fmt.Errorf("%w: unexpected %q in rank %q", ErrMalformedPosition, ch, rank)
		}
		if col > 8 {
			return col, fmt.Errorf("%w: rank %q overflows 8 columns", ErrMalformedPosition, rank)
		}
	}
	if col != 8 {
		return col, fmt.Errorf("%w: rank %q has %d columns", ErrMalformedPosition, rank, col)
	}
	return col, nil
}

// ParsePlacement strictly decodes a placement field
func ParsePlacement(placement string) (Grid, error) {
	grid, err := DecodePlacement(placement)
	if err != nil {
		return Grid{}, err
	}
	return grid, nil
}

// DecodePlacement decodes every well-formed rank and leaves malformed ranks
// empty. The returned error lists the ranks that were dropped; the grid is
// usable either way.
func DecodePlacement(placement string) (Grid, error) {
	var grid Grid
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return grid, fmt.Errorf("%w: expected 8 ranks, got %d", ErrMalformedPosition, len(ranks))
	}

	var errs []error
	for r, text := range ranks {
		if _, err := rankWidth(text); err != nil {
			errs = append(errs, fmt.Errorf("rank %d: %w", 8-r, err))
			continue
		}
		rank := 7 - r
		file := 0
		for i := 0; i < len(text); i++ {
			ch := text[i]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			grid[rank*8+file] = Piece(ch)
			file++
		}
	}
	return grid, errors.Join(errs...)
}
