package engine

import (
	"fmt"
	"slices"
	"strings"

	"chessboard/internal/board"
	"chessboard/internal/core"

	"github.com/notnil/chess"
)

// Rules is an Oracle backed by github.com/notnil/chess. The library has no undo,
// so Rules keeps the starting position and replays the move list minus the last
// ply.
type Rules struct {
	game         *chess.Game
	startFEN     string // empty for the standard start
	startInCheck bool
	history      []MoveRecord
}

// New returns an oracle at the standard starting position
func New() *Rules {
	return &Rules{game: chess.NewGame()}
}

// NewFromFEN returns an oracle at the given position
func NewFromFEN(fen string) (*Rules, error) {
	r := New()
	if err := r.Load(fen); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rules) Position() string {
	return r.game.Position().String()
}

func (r *Rules) Turn() core.Color {
	return fromChessColor(r.game.Position().Turn())
}

func (r *Rules) Report() Report {
	method := r.game.Method()
	threefold := method == chess.ThreefoldRepetition || method == chess.FivefoldRepetition ||
		slices.Contains(r.game.EligibleDraws(), chess.ThreefoldRepetition)
	insufficient := method == chess.InsufficientMaterial

	return Report{
		FEN:                  r.Position(),
		Turn:                 r.Turn(),
		Check:                r.inCheck(),
		Checkmate:            method == chess.Checkmate,
		Stalemate:            method == chess.Stalemate,
		Draw:                 r.game.Outcome() == chess.Draw || threefold || insufficient,
		ThreefoldRepetition:  threefold,
		InsufficientMaterial: insufficient,
		History:              slices.Clone(r.history),
	}
}

func (r *Rules) LegalDestinations(from board.Square) []board.Square {
	if !from.Valid() {
		return []board.Square{}
	}
	origin := chess.Square(from)

	dests := []board.Square{}
	for _, m := range r.game.ValidMoves() {
		if m.S1() != origin {
			continue
		}
		to := board.Square(m.S2())
		if !slices.Contains(dests, to) {
			dests = append(dests, to)
		}
	}
	slices.Sort(dests)
	return dests
}

// Move executes from->to. A promotion of NoPieceType defaults to a queen; the
// choice is ignored for non-promoting moves.
func (r *Rules) Move(from, to board.Square, promotion board.PieceType) (MoveRecord, error) {
	if !from.Valid() || !to.Valid() {
		return MoveRecord{}, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}
	if promotion == board.NoPieceType {
		promotion = board.Queen
	}

	var chosen *chess.Move
	for _, m := range r.game.ValidMoves() {
		if m.S1() != chess.Square(from) || m.S2() != chess.Square(to) {
			continue
		}
		if m.Promo() != chess.NoPieceType && m.Promo() != toChessPieceType(promotion) {
			continue
		}
		chosen = m
		break
	}
	if chosen == nil {
		return MoveRecord{}, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}

	before := r.game.Position()
	record := MoveRecord{
		From:      from,
		To:        to,
		Color:     fromChessColor(before.Turn()),
		Piece:     fromChessPiece(before.Board().Piece(chosen.S1())),
		Promotion: fromChessPieceType(chosen.Promo()),
		SAN:       chess.AlgebraicNotation{}.Encode(before, chosen),
		Flags:     moveFlags(before, chosen),
	}
	switch {
	case chosen.HasTag(chess.EnPassant):
		record.Captured = board.NewPiece(board.Pawn, core.OppositeColor(record.Color))
	case chosen.HasTag(chess.Capture):
		record.Captured = fromChessPiece(before.Board().Piece(chosen.S2()))
	}

	if err := r.game.Move(chosen); err != nil {
		return MoveRecord{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	r.history = append(r.history, record)
	return record, nil
}

func (r *Rules) Undo() (MoveRecord, bool) {
	n := len(r.history)
	if n == 0 {
		return MoveRecord{}, false
	}

	g, err := r.startGame()
	if err != nil {
		return MoveRecord{}, false
	}
	moves := r.game.Moves()
	for _, m := range moves[:n-1] {
		if err := g.Move(m); err != nil {
			return MoveRecord{}, false
		}
	}

	last := r.history[n-1]
	r.game = g
	r.history = r.history[:n-1]
	return last, true
}

func (r *Rules) Reset() {
	r.game = chess.NewGame()
	r.startFEN = ""
	r.startInCheck = false
	r.history = nil
}

// Load replaces the game with the given position. Castling rights and an en
// passant square the placement cannot support are dropped. Positions without
// one king per side, with pawns on the back ranks, or with the side not to
// move in check are rejected. Nothing changes on error.
func (r *Rules) Load(fen string) error {
	pos, err := board.ParseFEN(strings.TrimSpace(fen))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	if err := checkPlacement(pos); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}

	fields := strings.Fields(fen)
	fields[2] = castlingRights(pos)
	fields[3] = enPassantTarget(pos)
	fen = strings.Join(fields, " ")

	opt, err := chess.FEN(fen)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	if kingAttacked(fen, core.OppositeColor(pos.Turn)) {
		return fmt.Errorf("%w: side not to move is in check", ErrInvalidPosition)
	}

	r.game = chess.NewGame(opt)
	r.startFEN = fen
	r.startInCheck = kingAttacked(fen, pos.Turn)
	r.history = nil
	return nil
}

func (r *Rules) PositionAt(ply int) (string, bool) {
	positions := r.game.Positions()
	if ply < 0 || ply >= len(positions) {
		return "", false
	}
	return positions[ply].String(), true
}

func (r *Rules) startGame() (*chess.Game, error) {
	if r.startFEN == "" {
		return chess.NewGame(), nil
	}
	opt, err := chess.FEN(r.startFEN)
	if err != nil {
		return nil, err
	}
	return chess.NewGame(opt), nil
}

func (r *Rules) inCheck() bool {
	if r.game.Method() == chess.Checkmate {
		return true
	}
	moves := r.game.Moves()
	if n := len(moves); n > 0 {
		return moves[n-1].HasTag(chess.Check)
	}
	return r.startInCheck
}

// kingAttacked reports whether c's king is attacked. notnil/chess only tags
// check on executed moves, so the position is replayed with the other side to
// move and searched for a move landing on the king.
func kingAttacked(fen string, c core.Color) bool {
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return false
	}
	fields[1] = core.OppositeColor(c).String()
	fields[3] = "-"

	opt, err := chess.FEN(strings.Join(fields, " "))
	if err != nil {
		return false
	}
	g := chess.NewGame(opt)
	king := toChessPiece(board.NewPiece(board.King, c))
	b := g.Position().Board()
	for _, m := range g.ValidMoves() {
		if b.Piece(m.S2()) == king {
			return true
		}
	}
	return false
}

func checkPlacement(pos *board.Position) error {
	kings := map[board.Piece]int{}
	for sq := board.Square(0); sq < 64; sq++ {
		p := pos.PieceAt(sq)
		switch {
		case p.Type() == board.King:
			kings[p]++
		case p.Type() == board.Pawn && (sq.Rank() == 0 || sq.Rank() == 7):
			return fmt.Errorf("pawn on %s", sq)
		}
	}
	for _, c := range []core.Color{core.ColorWhite, core.ColorBlack} {
		if n := kings[board.NewPiece(board.King, c)]; n != 1 {
			return fmt.Errorf("%s has %d kings", c, n)
		}
	}
	return nil
}

var castlingHomes = []struct {
	right      byte
	king, rook string
	color      core.Color
}{
	{'K', "e1", "h1", core.ColorWhite},
	{'Q', "e1", "a1", core.ColorWhite},
	{'k', "e8", "h8", core.ColorBlack},
	{'q', "e8", "a8", core.ColorBlack},
}

// castlingRights keeps the claimed rights whose king and rook are home
func castlingRights(pos *board.Position) string {
	var out strings.Builder
	for _, h := range castlingHomes {
		if !strings.ContainsRune(pos.Castling, rune(h.right)) {
			continue
		}
		if pos.PieceAt(board.MustParseSquare(h.king)) != board.NewPiece(board.King, h.color) ||
			pos.PieceAt(board.MustParseSquare(h.rook)) != board.NewPiece(board.Rook, h.color) {
			continue
		}
		out.WriteByte(h.right)
	}
	if out.Len() == 0 {
		return "-"
	}
	return out.String()
}

// enPassantTarget keeps the claimed square only when a pawn of the side that
// just moved stands in front of it and its path is empty
func enPassantTarget(pos *board.Position) string {
	target, err := board.ParseSquare(pos.EnPassant)
	if err != nil {
		return "-"
	}
	rank, step := 5, -8
	if pos.Turn == core.ColorBlack {
		rank, step = 2, 8
	}
	if target.Rank() != rank {
		return "-"
	}
	pawn := board.NewPiece(board.Pawn, core.OppositeColor(pos.Turn))
	if pos.PieceAt(target+board.Square(step)) != pawn ||
		!pos.PieceAt(target).IsEmpty() ||
		!pos.PieceAt(target-board.Square(step)).IsEmpty() {
		return "-"
	}
	return pos.EnPassant
}

func moveFlags(pos *chess.Position, m *chess.Move) string {
	var flags strings.Builder
	switch {
	case m.HasTag(chess.KingSideCastle):
		flags.WriteByte('k')
	case m.HasTag(chess.QueenSideCastle):
		flags.WriteByte('q')
	case m.HasTag(chess.EnPassant):
		flags.WriteByte('e')
	case m.HasTag(chess.Capture):
		flags.WriteByte('c')
	}
	if m.Promo() != chess.NoPieceType {
		flags.WriteByte('p')
	}
	if flags.Len() == 0 {
		p := pos.Board().Piece(m.S1())
		if p.Type() == chess.Pawn && abs(int(m.S2())-int(m.S1())) == 16 {
			return "b"
		}
		return "n"
	}
	return flags.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func fromChessColor(c chess.Color) core.Color {
	switch c {
	case chess.White:
		return core.ColorWhite
	case chess.Black:
		return core.ColorBlack
	default:
		return core.ColorNone
	}
}

func toChessColor(c core.Color) chess.Color {
	switch c {
	case core.ColorWhite:
		return chess.White
	case core.ColorBlack:
		return chess.Black
	default:
		return chess.NoColor
	}
}

var pieceTypes = map[chess.PieceType]board.PieceType{
	chess.King:   board.King,
	chess.Queen:  board.Queen,
	chess.Rook:   board.Rook,
	chess.Bishop: board.Bishop,
	chess.Knight: board.Knight,
	chess.Pawn:   board.Pawn,
}

func fromChessPieceType(t chess.PieceType) board.PieceType {
	return pieceTypes[t]
}

func toChessPieceType(t board.PieceType) chess.PieceType {
	for ct, bt := range pieceTypes {
		if bt == t {
			return ct
		}
	}
	return chess.NoPieceType
}

func fromChessPiece(p chess.Piece) board.Piece {
	if p == chess.NoPiece {
		return board.Empty
	}
	return board.NewPiece(fromChessPieceType(p.Type()), fromChessColor(p.Color()))
}

func toChessPiece(p board.Piece) chess.Piece {
	if p.IsEmpty() {
		return chess.NoPiece
	}
	return chess.NewPiece(toChessPieceType(p.Type()), toChessColor(p.Color()))
}
