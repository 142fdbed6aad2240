package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"chessboard/internal/board"
	"chessboard/internal/game"
	"chessboard/internal/prefs"

	"go.uber.org/zap"
)

// PrefStore persists terminal preferences. *prefs.Store satisfies it.
type PrefStore interface {
	Load() (prefs.Prefs, error)
	Save(prefs.Prefs) error
}

// live marks the handler as showing the current position rather than a
// history snapshot
const live = -1

// Handler runs the terminal board: it reads commands from the view, drives one
// game session and keeps orientation, theme and promotion in the preferences.
type Handler struct {
	session *game.Session
	view    *CLI
	store   PrefStore
	prefs   prefs.Prefs
	ply     int
	log     *zap.Logger
}

// NewHandler applies p to the view and session. store may be nil, in which
// case preference changes last for the process only.
func NewHandler(session *game.Session, view *CLI, store PrefStore, p prefs.Prefs, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		session: session,
		view:    view,
		store:   store,
		prefs:   p,
		ply:     live,
		log:     log,
	}
	if theme, err := ParseTheme(p.Theme); err == nil {
		view.SetTheme(theme)
	}
	h.prefs.Theme = string(view.Theme())
	if pt, ok := board.ParsePromotion(p.Promotion); ok {
		session.SetPromotion(pt)
	}
	h.prefs.Promotion = session.Promotion().String()
	return h
}

// Prefs returns the preferences as currently applied
func (h *Handler) Prefs() prefs.Prefs {
	return h.prefs
}

// Run shows the board and processes commands until quit or end of input
func (h *Handler) Run() error {
	h.view.ShowWelcome()
	h.showBoard()
	for {
		cmd, err := h.view.GetCommand(h.prompt())
		if err != nil {
			return err
		}
		if !h.ProcessCommand(cmd) {
			return nil
		}
	}
}

func (h *Handler) prompt() string {
	st := h.session.State()
	if h.ply != live {
		return h.view.Prompt(fmt.Sprintf("[ply %d/%d]", h.ply, h.session.Plies()))
	}
	turn := st.Turn.Name()
	if h.view.Theme() != ThemeOff {
		turn = ColorForTurn(st.Turn)
	}
	text := fmt.Sprintf("[%s] move %d", turn, st.MoveCount)
	if sq, ok := h.session.Selection(); ok {
		text += " " + sq.String()
	}
	return h.view.Prompt(text)
}

// ProcessCommand handles one command - returns false to exit
func (h *Handler) ProcessCommand(cmd *Command) bool {
	switch cmd.Type {
	case CmdQuit:
		return false

	case CmdNone:
		return true

	case CmdSquare:
		sq, err := board.ParseSquare(cmd.Args[0])
		if err != nil {
			h.view.ShowError(fmt.Errorf("unknown command or square %q, type 'help'", cmd.Args[0]))
			return true
		}
		h.click(sq)

	case CmdCell:
		if len(cmd.Args) != 2 {
			h.view.ShowMessage("Usage: cell <row> <col>")
			return true
		}
		row, errR := strconv.Atoi(cmd.Args[0])
		col, errC := strconv.Atoi(cmd.Args[1])
		if errR != nil || errC != nil {
			h.view.ShowMessage("Usage: cell <row> <col>")
			return true
		}
		sq, err := board.ToSquare(board.Cell{Row: row, Col: col}, h.prefs.Flipped)
		if err != nil {
			h.view.ShowError(err)
			return true
		}
		h.click(sq)

	case CmdFlip:
		h.prefs.Flipped = !h.prefs.Flipped
		h.savePrefs()
		h.showBoard()

	case CmdUndo:
		h.ply = live
		rec, ok := h.session.Undo()
		if !ok {
			h.view.ShowMessage("No moves to undo.")
			return true
		}
		h.view.ShowMessage(fmt.Sprintf("Took back %s", rec.SAN))
		h.showBoard()

	case CmdNew:
		h.ply = live
		h.session.NewGame()
		h.view.ShowMessage("New game started.")
		h.showBoard()

	case CmdLoad:
		if cmd.Raw == "" {
			h.view.ShowMessage("Usage: load <FEN string>")
			return true
		}
		if err := h.session.Load(cmd.Raw); err != nil {
			h.view.ShowError(err)
			return true
		}
		h.ply = live
		h.view.ShowMessage("Position loaded.")
		h.showBoard()

	case CmdFEN:
		h.view.ShowMessage(h.session.Export())

	case CmdHistory:
		start, err := h.session.PositionAt(0)
		if err != nil {
			h.view.ShowError(err)
			return true
		}
		h.view.ShowGameHistory(start, h.session.State())

	case CmdPly:
		h.showPly(cmd.Args)

	case CmdPromote:
		if len(cmd.Args) != 1 {
			h.view.ShowMessage(fmt.Sprintf("Usage: promote <q|r|b|n> (current: %s)", h.prefs.Promotion))
			return true
		}
		pt, ok := board.ParsePromotion(cmd.Args[0])
		if !ok {
			h.view.ShowError(fmt.Errorf("invalid promotion piece %q (use: q, r, b, n)", cmd.Args[0]))
			return true
		}
		h.session.SetPromotion(pt)
		h.prefs.Promotion = pt.String()
		h.savePrefs()
		h.view.ShowMessage(fmt.Sprintf("Pawns promote to %s", pt))

	case CmdTheme:
		if len(cmd.Args) != 1 {
			h.view.ShowMessage(fmt.Sprintf("Usage: theme <off|brown|green|gray> (current: %s)", h.view.Theme()))
			return true
		}
		theme, err := ParseTheme(cmd.Args[0])
		if err != nil {
			h.view.ShowError(err)
			return true
		}
		h.view.SetTheme(theme)
		h.prefs.Theme = string(theme)
		h.savePrefs()
		h.view.ShowMessage(fmt.Sprintf("Color theme set to: %s", theme))
		h.showBoard()

	case CmdHelp:
		h.view.ShowHelp()
	}

	return true
}

func (h *Handler) click(sq board.Square) {
	if h.ply != live {
		h.ply = live
		h.view.ShowMessage("Back to the current position.")
	}

	res, rec := h.session.Click(sq)
	h.log.Debug("click", zap.Stringer("square", sq), zap.Stringer("result", res))

	switch res {
	case game.ClickIgnored:
		if h.session.State().GameOver {
			h.view.ShowGameOver(h.session.State())
			return
		}
		h.view.ShowMessage(fmt.Sprintf("Nothing to select on %s.", sq))
		return
	case game.ClickRejected:
		h.view.ShowError(errors.New("move rejected"))
		return
	case game.ClickSelected, game.ClickReselected:
		h.view.ShowMessage(fmt.Sprintf("%s selected, %d legal moves", sq, len(h.session.LegalMoves())))
	case game.ClickMoved:
		h.view.ShowMessage(fmt.Sprintf("%s: %s", rec.Color.Name(), rec.SAN))
	}

	h.showBoard()
	st := h.session.State()
	switch {
	case st.GameOver:
		h.view.ShowGameOver(st)
	case res == game.ClickMoved && st.Check:
		h.view.ShowMessage(st.Turn.Name() + " is in check.")
	}
}

func (h *Handler) showPly(args []string) {
	if len(args) == 0 || strings.EqualFold(args[0], "live") {
		h.ply = live
		h.showBoard()
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		h.view.ShowMessage("Usage: ply [n]")
		return
	}
	v, err := h.session.BoardAt(n, h.prefs.Flipped)
	if err != nil {
		h.view.ShowError(err)
		return
	}
	h.ply = n
	if n == h.session.Plies() {
		h.ply = live
	}
	h.view.DisplayBoard(v)
}

func (h *Handler) showBoard() {
	if h.ply != live {
		if v, err := h.session.BoardAt(h.ply, h.prefs.Flipped); err == nil {
			h.view.DisplayBoard(v)
			return
		}
		h.ply = live
	}
	h.view.DisplayBoard(h.session.Board(h.prefs.Flipped))
}

func (h *Handler) savePrefs() {
	if h.store == nil {
		return
	}
	if err := h.store.Save(h.prefs); err != nil {
		h.log.Warn("save preferences", zap.Error(err))
		h.view.ShowError(fmt.Errorf("preferences not saved: %w", err))
	}
}
