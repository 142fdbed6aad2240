// FILE: internal/cli/cli.go
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"chessboard/internal/board"
	"chessboard/internal/core"
	"chessboard/internal/game"

	"github.com/chzyer/readline"
)

type CommandType int

const (
	CmdNone CommandType = iota
	CmdSquare
	CmdCell
	CmdFlip
	CmdUndo
	CmdNew
	CmdLoad
	CmdFEN
	CmdHistory
	CmdPly
	CmdPromote
	CmdTheme
	CmdHelp
	CmdQuit
)

type Command struct {
	Type CommandType
	Args []string
	Raw  string
}

// LineReader is the prompt-driven input the CLI reads from. *readline.Instance
// satisfies it.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

type ColorTheme string

const (
	ThemeOff   ColorTheme = "off"
	ThemeBrown ColorTheme = "brown"
	ThemeGreen ColorTheme = "green"
	ThemeGray  ColorTheme = "gray"
)

type themeColors struct {
	lightBg    string
	darkBg     string
	selectedBg string
	legalBg    string
	lastBg     string
	white      string
	black      string
	reset      string
}

const (
	selectedBg = "\033[48;5;220m" // Gold
	legalBg    = "\033[48;5;117m" // Sky blue
	lastMoveBg = "\033[48;5;186m" // Khaki
)

var themes = map[ColorTheme]themeColors{
	ThemeOff: {},
	ThemeBrown: {
		lightBg:    "\033[48;5;230m", // Beige
		darkBg:     "\033[48;5;94m",  // Brown
		selectedBg: selectedBg,
		legalBg:    legalBg,
		lastBg:     lastMoveBg,
		white:      "\033[97m",
		black:      "\033[30m",
		reset:      Reset,
	},
	ThemeGreen: {
		lightBg:    "\033[48;5;157m", // Light green
		darkBg:     "\033[48;5;22m",  // Dark green
		selectedBg: selectedBg,
		legalBg:    legalBg,
		lastBg:     lastMoveBg,
		white:      "\033[97m",
		black:      "\033[30m",
		reset:      Reset,
	},
	ThemeGray: {
		lightBg:    "\033[48;5;251m", // Light gray
		darkBg:     "\033[48;5;240m", // Dark gray
		selectedBg: selectedBg,
		legalBg:    legalBg,
		lastBg:     lastMoveBg,
		white:      "\033[97m",
		black:      "\033[30m",
		reset:      Reset,
	},
}

// ParseTheme validates a theme name
func ParseTheme(name string) (ColorTheme, error) {
	theme := ColorTheme(strings.ToLower(name))
	if _, ok := themes[theme]; !ok {
		return "", fmt.Errorf("invalid theme: %s (use: off, brown, green, gray)", name)
	}
	return theme, nil
}

type CLI struct {
	input  LineReader
	output io.Writer
	theme  ColorTheme
}

func New(input LineReader, output io.Writer) *CLI {
	return &CLI{
		input:  input,
		output: output,
		theme:  ThemeOff,
	}
}

// GetCommand shows prompt and reads one command. End of input reads as quit;
// an interrupted line reads as an empty command.
func (c *CLI) GetCommand(prompt string) (*Command, error) {
	c.input.SetPrompt(prompt)
	line, err := c.input.Readline()
	switch {
	case errors.Is(err, io.EOF):
		return &Command{Type: CmdQuit}, nil
	case errors.Is(err, readline.ErrInterrupt):
		return &Command{Type: CmdNone}, nil
	case err != nil:
		return nil, err
	}

	input := strings.TrimSpace(line)
	if input == "" {
		return &Command{Type: CmdNone}, nil
	}
	return parseCommand(input), nil
}

func parseCommand(input string) *Command {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return &Command{Type: CmdNone}
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "cell":
		return &Command{Type: CmdCell, Args: args}
	case "flip":
		return &Command{Type: CmdFlip}
	case "undo":
		return &Command{Type: CmdUndo}
	case "new":
		return &Command{Type: CmdNew}
	case "load":
		return &Command{Type: CmdLoad, Args: args, Raw: strings.TrimSpace(strings.TrimPrefix(input, parts[0]))}
	case "fen":
		return &Command{Type: CmdFEN}
	case "history":
		return &Command{Type: CmdHistory}
	case "ply":
		return &Command{Type: CmdPly, Args: args}
	case "promote":
		return &Command{Type: CmdPromote, Args: args}
	case "theme", "color":
		return &Command{Type: CmdTheme, Args: args}
	case "help", "?":
		return &Command{Type: CmdHelp}
	case "quit", "exit":
		return &Command{Type: CmdQuit}
	default:
		// Anything else is a square click
		return &Command{Type: CmdSquare, Args: []string{strings.ToLower(parts[0])}}
	}
}

func (c *CLI) Theme() ColorTheme {
	return c.theme
}

func (c *CLI) SetTheme(theme ColorTheme) error {
	if _, ok := themes[theme]; !ok {
		return fmt.Errorf("invalid theme: %s (use: off, brown, green, gray)", theme)
	}
	c.theme = theme
	return nil
}

func (c *CLI) ShowMessage(msg string) {
	fmt.Fprintln(c.output, msg)
}

func (c *CLI) ShowError(err error) {
	if c.theme == ThemeOff {
		c.ShowMessage(fmt.Sprintf("Error: %v", err))
		return
	}
	c.ShowMessage(fmt.Sprintf("%sError: %v%s", Red, err, Reset))
}

// Prompt formats the prompt for the current theme
func (c *CLI) Prompt(text string) string {
	if c.theme == ThemeOff {
		return text + " > "
	}
	return Prompt(text)
}

// DisplayBoard prints a rendered view. The off theme prints the plain ASCII
// grid with its markers; other themes use background colors for highlights.
func (c *CLI) DisplayBoard(v board.View) {
	if c.theme == ThemeOff {
		c.ShowMessage("\n" + v.ASCII() + "\n")
		return
	}

	theme := themes[c.theme]
	files := "  " + strings.Join(v.FileLabels(), " ") + "\n"
	ranks := v.RankLabels()

	var sb strings.Builder
	sb.WriteString("\n" + files)
	for row := 0; row < 8; row++ {
		sb.WriteString(ranks[row] + " ")
		for col := 0; col < 8; col++ {
			cell := v.Cells[row][col]
			bg := theme.lightBg
			if cell.Dark {
				bg = theme.darkBg
			}
			switch {
			case cell.Selected:
				bg = theme.selectedBg
			case cell.Legal:
				bg = theme.legalBg
			case cell.LastMove:
				bg = theme.lastBg
			}

			if cell.Piece == "" {
				sb.WriteString(fmt.Sprintf("%s  %s", bg, theme.reset))
				continue
			}
			color := theme.black
			if board.Piece(cell.Piece[0]).Color() == core.ColorWhite {
				color = theme.white
			}
			sb.WriteString(fmt.Sprintf("%s%s%s %s", bg, color, cell.Piece, theme.reset))
		}
		sb.WriteString(fmt.Sprintf(" %s\n", ranks[row]))
	}
	sb.WriteString(files)

	c.ShowMessage(sb.String())
}

func (c *CLI) ShowHelp() {
	help := `Commands:
  <square>         - Click a square (e.g. e2), select then click a destination
  cell <row> <col> - Click a visual cell, 0-7 from the top left corner
  flip             - Flip the board orientation
  undo             - Take back the last move
  new              - Start a new game
  load <FEN>       - Load a position
  fen              - Print the current position
  history          - Show the move list
  ply [n]          - Show the position after n half-moves, no argument returns to the game
  promote <piece>  - Promotion piece (q|r|b|n)
  theme <theme>    - Board color theme (off|brown|green|gray)
  help/?           - Show this help message
  quit/exit        - Exit the program

Plain boards mark the selection '<', legal destinations '*' and the last move '.`

	c.ShowMessage(help)
}

func (c *CLI) ShowWelcome() {
	c.ShowMessage("Welcome to Chessboard!")
	c.ShowMessage("Click a piece by typing its square (e2), then its destination (e4).")
	c.ShowMessage("Type 'help' for all commands.")
	c.ShowMessage("")
}

// ShowGameHistory prints the move list in numbered pairs starting from the
// loaded position's turn
func (c *CLI) ShowGameHistory(startFEN string, st game.State) {
	c.ShowMessage(fmt.Sprintf("Starting FEN: %s", startFEN))

	moves := st.History
	num := 1
	i := 0
	if len(moves) > 0 && moves[0].Color == core.ColorBlack {
		c.ShowMessage(fmt.Sprintf("%d. ... | %s", num, moves[0].SAN))
		num++
		i = 1
	}
	for ; i < len(moves); i += 2 {
		if i+1 < len(moves) {
			c.ShowMessage(fmt.Sprintf("%d. %s | %s", num, moves[i].SAN, moves[i+1].SAN))
		} else {
			c.ShowMessage(fmt.Sprintf("%d. %s | ...", num, moves[i].SAN))
		}
		num++
	}
	c.ShowMessage(fmt.Sprintf("Current FEN: %s", st.FEN))
	c.ShowMessage(fmt.Sprintf("Game state: %s", status(st)))
}

func (c *CLI) ShowGameOver(st game.State) {
	c.ShowMessage(fmt.Sprintf("\nGame Over: %s", st.Result()))
	c.ShowMessage("Start a new game with 'new', 'load <FEN>' or take back with 'undo'.")
}

func status(st game.State) string {
	switch {
	case st.GameOver:
		return st.Result()
	case st.Check:
		return st.Turn.Name() + " to move, in check"
	default:
		return st.Turn.Name() + " to move"
	}
}
