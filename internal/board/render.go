package board

import (
	"fmt"
	"strings"
)

// Highlights carries the interaction state the renderer marks on the grid.
type Highlights struct {
	Selected Square
	Legal    []Square
	LastFrom Square
	LastTo   Square
}

// NoHighlights returns highlights with every square unset
func NoHighlights() Highlights {
	return Highlights{Selected: NoSquare, LastFrom: NoSquare, LastTo: NoSquare}
}

// SquareView describes one rendered cell.
type SquareView struct {
	Square   Square `json:"-"`
	Name     string `json:"square"`
	Cell     Cell   `json:"cell"`
	Piece    string `json:"piece,omitempty"`
	Dark     bool   `json:"dark"`
	Selected bool   `json:"selected,omitempty"`
	Legal    bool   `json:"legal,omitempty"`
	LastMove bool   `json:"lastMove,omitempty"`
}

// View is the board laid out in visual order, Cells[row][col].
type View struct {
	Flipped bool              `json:"flipped"`
	Cells   [8][8]SquareView `json:"cells"`
}

// Render lays out a placement field for the given orientation. Malformed ranks
// render as empty squares.
func Render(placement string, flipped bool, hl Highlights) View {
	grid, _ := DecodePlacement(placement)

	legal := make(map[Square]bool, len(hl.Legal))
	for _, sq := range hl.Legal {
		legal[sq] = true
	}

	v := View{Flipped: flipped}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			cell := Cell{Row: row, Col: col}
			sq, _ := ToSquare(cell, flipped)
			v.Cells[row][col] = SquareView{
				Square:   sq,
				Name:     sq.String(),
				Cell:     cell,
				Piece:    grid.At(sq).String(),
				Dark:     sq.IsDark(),
				Selected: hl.Selected.Valid() && sq == hl.Selected,
				Legal:    legal[sq],
				LastMove: (hl.LastFrom.Valid() && sq == hl.LastFrom) || (hl.LastTo.Valid() && sq == hl.LastTo),
			}
		}
	}
	return v
}

// At returns the view of a square regardless of orientation
func (v View) At(sq Square) (SquareView, bool) {
	cell, err := ToVisual(sq, v.Flipped)
	if err != nil {
		return SquareView{}, false
	}
	return v.Cells[cell.Row][cell.Col], true
}

// FileLabels lists file letters left to right
func (v View) FileLabels() []string {
	labels := make([]string, 8)
	for col := 0; col < 8; col++ {
		labels[col] = string(rune('a' + v.Cells[0][col].Square.File()))
	}
	return labels
}

// RankLabels lists rank digits top to bottom
func (v View) RankLabels() []string {
	labels := make([]string, 8)
	for row := 0; row < 8; row++ {
		labels[row] = string(rune('1' + v.Cells[row][0].Square.Rank()))
	}
	return labels
}

// ASCII creates a plain text representation. Each cell is the piece letter or
// '.', followed by a marker: '<' selected, '*' legal destination, '\'' last move.
func (v View) ASCII() string {
	var sb strings.Builder
	files := "  " + strings.Join(v.FileLabels(), " ")
	ranks := v.RankLabels()

	sb.WriteString(files + "\n")
	for row := 0; row < 8; row++ {
		sb.WriteString(ranks[row] + " ")
		for col := 0; col < 8; col++ {
			c := v.Cells[row][col]
			glyph := "."
			if c.Piece != "" {
				glyph = c.Piece
			}
			sb.WriteString(glyph + marker(c))
		}
		sb.WriteString(fmt.Sprintf(" %s\n", ranks[row]))
	}
	sb.WriteString(files)

	return sb.String()
}

func marker(c SquareView) string {
	switch {
	case c.Selected:
		return "<"
	case c.Legal:
		return "*"
	case c.LastMove:
		return "'"
	default:
		return " "
	}
}
