package core

type Color byte

const (
	ColorNone  Color = 0
	ColorWhite Color = 'w'
	ColorBlack Color = 'b'
)

func (c Color) String() string {
	switch c {
	case ColorWhite:
		return "w"
	case ColorBlack:
		return "b"
	default:
		return "-"
	}
}

// Name returns the capitalized color name used in prompts and status lines
func (c Color) Name() string {
	switch c {
	case ColorWhite:
		return "White"
	case ColorBlack:
		return "Black"
	default:
		return "None"
	}
}

func OppositeColor(c Color) Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// ParseColor accepts the FEN side-to-move letters
func ParseColor(s string) (Color, bool) {
	switch s {
	case "w":
		return ColorWhite, true
	case "b":
		return ColorBlack, true
	default:
		return ColorNone, false
	}
}
