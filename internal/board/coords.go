package board

import "fmt"

// Cell is a row/column position in the rendered grid, row 0 at the top.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) Valid() bool {
	return c.Row >= 0 && c.Row < 8 && c.Col >= 0 && c.Col < 8
}

// ToVisual maps a square to its screen cell. Unflipped, rank 8 is row 0 and
// file a is column 0; flipped, rank 1 is row 0 and file h is column 0.
func ToVisual(sq Square, flipped bool) (Cell, error) {
	if !sq.Valid() {
		return Cell{}, fmt.Errorf("%w: index %d", ErrInvalidSquare, int(sq))
	}
	if flipped {
		return Cell{Row: sq.Rank(), Col: 7 - sq.File()}, nil
	}
	return Cell{Row: 7 - sq.Rank(), Col: sq.File()}, nil
}

// ToSquare is the inverse of ToVisual for the same orientation
func ToSquare(c Cell, flipped bool) (Square, error) {
	if !c.Valid() {
		return NoSquare, fmt.Errorf("%w: row %d col %d", ErrInvalidCell, c.Row, c.Col)
	}
	if flipped {
		return Square(c.Row*8 + 7 - c.Col), nil
	}
	return Square((7-c.Row)*8 + c.Col), nil
}
