// FILE: internal/game/game.go
package game

import (
	"fmt"
	"slices"

	"chessboard/internal/board"
	"chessboard/internal/engine"

	"go.uber.org/zap"
)

// Session couples a rules oracle with the selection machine, the captured-piece
// ledger and the derived State. A Session is not safe for concurrent use.
type Session struct {
	oracle    engine.Oracle
	sel       selection
	ledger    Ledger
	state     State
	promotion board.PieceType
	log       *zap.Logger
}

type Option func(*Session)

// WithLogger sets the diagnostic sink, zap.NewNop by default
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPromotion sets the piece pawns promote to, queen by default
func WithPromotion(pt board.PieceType) Option {
	return func(s *Session) {
		if _, ok := board.ParsePromotion(pt.String()); ok {
			s.promotion = pt
		}
	}
}

// New wraps oracle in a session. The oracle's current position and history are
// taken as they are; the ledger starts empty.
func New(oracle engine.Oracle, opts ...Option) *Session {
	s := &Session{
		oracle:    oracle,
		sel:       newSelection(),
		promotion: board.Queen,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rebuild()
	return s
}

// Click feeds one square click through the selection machine. The move record
// is set only for ClickMoved.
func (s *Session) Click(sq board.Square) (ClickResult, engine.MoveRecord) {
	if !sq.Valid() || s.state.GameOver {
		return ClickIgnored, engine.MoveRecord{}
	}

	occupant := board.PieceAt(board.Placement(s.state.FEN), sq)
	own := !occupant.IsEmpty() && occupant.Color() == s.state.Turn

	if s.sel.idle() {
		if !own {
			return ClickIgnored, engine.MoveRecord{}
		}
		s.sel.choose(s.oracle, sq)
		return ClickSelected, engine.MoveRecord{}
	}

	from := s.sel.square
	switch {
	case sq == from:
		s.sel.clear()
		return ClickDeselected, engine.MoveRecord{}

	case s.sel.cache.Contains(from, sq):
		s.sel.clear()
		rec, err := s.oracle.Move(from, sq, s.promotion)
		if err != nil {
			s.log.Warn("move rejected by oracle",
				zap.Stringer("from", from),
				zap.Stringer("to", sq),
				zap.Error(err))
			return ClickRejected, engine.MoveRecord{}
		}
		s.ledger.Push(rec.CapturedColor(), rec.Captured)
		s.rebuild()
		s.log.Debug("move", zap.String("san", rec.SAN), zap.String("fen", s.state.FEN))
		return ClickMoved, rec

	case own:
		s.sel.choose(s.oracle, sq)
		return ClickReselected, engine.MoveRecord{}

	default:
		s.sel.clear()
		return ClickDeselected, engine.MoveRecord{}
	}
}

// ClickCell resolves a visual cell for the given orientation and clicks it
func (s *Session) ClickCell(c board.Cell, flipped bool) (ClickResult, engine.MoveRecord, error) {
	sq, err := board.ToSquare(c, flipped)
	if err != nil {
		return ClickIgnored, engine.MoveRecord{}, err
	}
	res, rec := s.Click(sq)
	return res, rec, nil
}

// NewGame resets to the standard starting position
func (s *Session) NewGame() {
	s.oracle.Reset()
	s.ledger.Clear()
	s.sel.clear()
	s.rebuild()
}

// Undo takes back the last ply. It reports false when there is nothing to undo.
func (s *Session) Undo() (engine.MoveRecord, bool) {
	s.sel.clear()
	rec, ok := s.oracle.Undo()
	if !ok {
		return engine.MoveRecord{}, false
	}
	if !rec.Captured.IsEmpty() {
		if _, popped := s.ledger.Pop(rec.CapturedColor()); !popped {
			s.log.Warn("ledger out of step with history", zap.String("san", rec.SAN))
		}
	}
	s.rebuild()
	return rec, true
}

// Load replaces the game with fen. On error nothing changes.
func (s *Session) Load(fen string) error {
	if err := s.oracle.Load(fen); err != nil {
		return fmt.Errorf("load position: %w", err)
	}
	s.ledger.Clear()
	s.sel.clear()
	s.rebuild()
	return nil
}

func (s *Session) Export() string {
	return s.oracle.Position()
}

// State returns a copy of the aggregate
func (s *Session) State() State {
	st := s.state
	st.History = slices.Clone(s.state.History)
	st.Captured = s.ledger.Snapshot()
	return st
}

// Selection returns the selected square, false when idle
func (s *Session) Selection() (board.Square, bool) {
	if s.sel.idle() {
		return board.NoSquare, false
	}
	return s.sel.square, true
}

// LegalMoves returns the destinations of the selected piece, empty when idle
func (s *Session) LegalMoves() []board.Square {
	if s.sel.idle() {
		return []board.Square{}
	}
	return s.sel.cache.Destinations()
}

func (s *Session) Promotion() board.PieceType {
	return s.promotion
}

// SetPromotion chooses the piece used by later promotions: q, r, b or n
func (s *Session) SetPromotion(pt board.PieceType) error {
	if _, ok := board.ParsePromotion(pt.String()); !ok {
		return fmt.Errorf("invalid promotion piece %q", pt.String())
	}
	s.promotion = pt
	return nil
}

// Board renders the live position with selection, destinations and last move
func (s *Session) Board(flipped bool) board.View {
	hl := board.NoHighlights()
	if sq, ok := s.Selection(); ok {
		hl.Selected = sq
		hl.Legal = s.LegalMoves()
	}
	hl.LastFrom, hl.LastTo = s.state.LastMoveSquares()
	return board.Render(board.Placement(s.state.FEN), flipped, hl)
}

func (s *Session) rebuild() {
	s.state = Rebuild(s.oracle.Report(), &s.ledger)
}
