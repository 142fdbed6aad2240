package game

import (
	"errors"
	"testing"

	"chessboard/internal/board"
	"chessboard/internal/core"
	"chessboard/internal/engine"

	"github.com/google/go-cmp/cmp"
)

// countingOracle records how often the session asks for destinations and can
// be told to refuse moves the inner oracle would accept.
type countingOracle struct {
	*engine.Rules
	destCalls  int
	rejectMove bool
}

func (o *countingOracle) LegalDestinations(from board.Square) []board.Square {
	o.destCalls++
	return o.Rules.LegalDestinations(from)
}

func (o *countingOracle) Move(from, to board.Square, promo board.PieceType) (engine.MoveRecord, error) {
	if o.rejectMove {
		return engine.MoveRecord{}, engine.ErrIllegalMove
	}
	return o.Rules.Move(from, to, promo)
}

func newSession(t *testing.T) (*Session, *countingOracle) {
	t.Helper()
	o := &countingOracle{Rules: engine.New()}
	return New(o), o
}

func loadSession(t *testing.T, fen string) *Session {
	t.Helper()
	s, _ := newSession(t)
	if err := s.Load(fen); err != nil {
		t.Fatalf("Load(%q): %v", fen, err)
	}
	return s
}

func sq(name string) board.Square {
	return board.MustParseSquare(name)
}

func squares(names ...string) []board.Square {
	out := make([]board.Square, len(names))
	for i, n := range names {
		out[i] = sq(n)
	}
	return out
}

func click(t *testing.T, s *Session, name string, want ClickResult) engine.MoveRecord {
	t.Helper()
	got, rec := s.Click(sq(name))
	if got != want {
		t.Fatalf("Click(%s) = %v, want %v", name, got, want)
	}
	return rec
}

func TestSelectShowsLegalDestinations(t *testing.T) {
	s, _ := newSession(t)

	click(t, s, "e2", ClickSelected)

	if got, ok := s.Selection(); !ok || got != sq("e2") {
		t.Errorf("Selection() = %v, %v; want e2", got, ok)
	}
	if diff := cmp.Diff(squares("e3", "e4"), s.LegalMoves()); diff != "" {
		t.Errorf("LegalMoves mismatch (-want +got):\n%s", diff)
	}
}

func TestClickLegalDestinationMoves(t *testing.T) {
	s, _ := newSession(t)

	click(t, s, "e2", ClickSelected)
	rec := click(t, s, "e4", ClickMoved)

	if rec.SAN != "e4" {
		t.Errorf("SAN = %q, want e4", rec.SAN)
	}
	st := s.State()
	if st.Turn != core.ColorBlack {
		t.Errorf("Turn = %v, want black", st.Turn)
	}
	if _, ok := s.Selection(); ok {
		t.Error("selection survived a move")
	}
	if len(s.LegalMoves()) != 0 {
		t.Errorf("LegalMoves() = %v after move, want empty", s.LegalMoves())
	}
	if st.LastMove == nil || st.LastMove.From != sq("e2") || st.LastMove.To != sq("e4") {
		t.Errorf("LastMove = %+v, want e2e4", st.LastMove)
	}
	if got := board.PieceAt(board.Placement(st.FEN), sq("e4")); got != 'P' {
		t.Errorf("e4 = %q, want P", got)
	}
}

func TestClickSameSquareDeselects(t *testing.T) {
	s, _ := newSession(t)
	before := s.State().FEN

	click(t, s, "e2", ClickSelected)
	click(t, s, "e2", ClickDeselected)

	if _, ok := s.Selection(); ok {
		t.Error("still selected")
	}
	if s.State().FEN != before || len(s.State().History) != 0 {
		t.Error("deselect changed the position")
	}
}

func TestIdleIgnoresEmptyAndOpponentSquares(t *testing.T) {
	s, o := newSession(t)

	for _, name := range []string{"e4", "e7", "h8", "d5"} {
		click(t, s, name, ClickIgnored)
		if _, ok := s.Selection(); ok {
			t.Errorf("Click(%s) left a selection", name)
		}
	}
	if o.destCalls != 0 {
		t.Errorf("oracle asked %d times for ignored clicks", o.destCalls)
	}
	if got, _ := s.Click(board.NoSquare); got != ClickIgnored {
		t.Errorf("Click(NoSquare) = %v", got)
	}
}

func TestReselectOwnPiece(t *testing.T) {
	s, _ := newSession(t)

	click(t, s, "e2", ClickSelected)
	click(t, s, "g1", ClickReselected)

	if got, _ := s.Selection(); got != sq("g1") {
		t.Errorf("Selection() = %v, want g1", got)
	}
	if diff := cmp.Diff(squares("f3", "h3"), s.LegalMoves()); diff != "" {
		t.Errorf("LegalMoves mismatch (-want +got):\n%s", diff)
	}
}

func TestIllegalDestinationDeselects(t *testing.T) {
	s, _ := newSession(t)

	click(t, s, "e2", ClickSelected)
	click(t, s, "e5", ClickDeselected)

	if _, ok := s.Selection(); ok {
		t.Error("still selected")
	}
	if len(s.State().History) != 0 {
		t.Error("illegal destination produced a move")
	}
}

func TestOracleRejectionLeavesGameUnchanged(t *testing.T) {
	s, o := newSession(t)
	before := s.State()

	click(t, s, "e2", ClickSelected)
	o.rejectMove = true
	click(t, s, "e4", ClickRejected)

	if _, ok := s.Selection(); ok {
		t.Error("selection survived a rejected move")
	}
	if len(s.LegalMoves()) != 0 {
		t.Error("legal set survived a rejected move")
	}
	if diff := cmp.Diff(before, s.State()); diff != "" {
		t.Errorf("state changed after rejection (-want +got):\n%s", diff)
	}
}

func TestOneOracleQueryPerSelectionChange(t *testing.T) {
	s, o := newSession(t)

	click(t, s, "e2", ClickSelected)
	click(t, s, "g1", ClickReselected)
	click(t, s, "a5", ClickDeselected)
	click(t, s, "b1", ClickSelected)
	click(t, s, "c3", ClickMoved)

	if o.destCalls != 3 {
		t.Errorf("LegalDestinations called %d times, want 3", o.destCalls)
	}
}

func TestLedgerTracksCapturesAndUndo(t *testing.T) {
	s, _ := newSession(t)

	click(t, s, "e2", ClickSelected)
	click(t, s, "e4", ClickMoved)
	click(t, s, "d7", ClickSelected)
	click(t, s, "d5", ClickMoved)
	click(t, s, "e4", ClickSelected)
	rec := click(t, s, "d5", ClickMoved)

	if rec.Captured != 'p' {
		t.Fatalf("captured = %q, want p", rec.Captured)
	}
	want := Captured{White: []string{}, Black: []string{"p"}}
	if diff := cmp.Diff(want, s.State().Captured); diff != "" {
		t.Errorf("captured mismatch (-want +got):\n%s", diff)
	}

	click(t, s, "d8", ClickSelected)
	rec = click(t, s, "d5", ClickMoved)
	if rec.Captured != 'P' {
		t.Fatalf("captured = %q, want P", rec.Captured)
	}

	for i := 0; i < 4; i++ {
		if _, ok := s.Undo(); !ok {
			t.Fatalf("undo %d failed", i)
		}
	}
	want = Captured{White: []string{}, Black: []string{}}
	if diff := cmp.Diff(want, s.State().Captured); diff != "" {
		t.Errorf("ledger not empty after undoing everything (-want +got):\n%s", diff)
	}
	if _, ok := s.Undo(); ok {
		t.Error("Undo at start succeeded")
	}
}

func TestUndoClearsSelection(t *testing.T) {
	s, _ := newSession(t)
	click(t, s, "e2", ClickSelected)
	click(t, s, "e4", ClickMoved)
	click(t, s, "e7", ClickSelected)

	if _, ok := s.Undo(); !ok {
		t.Fatal("Undo failed")
	}
	if _, ok := s.Selection(); ok {
		t.Error("selection survived undo")
	}
	if s.State().Turn != core.ColorWhite || s.State().LastMove != nil {
		t.Errorf("state after undo = %+v", s.State())
	}
}

func TestMoveCount(t *testing.T) {
	tests := []struct {
		plies int
		want  int
	}{
		{0, 1}, {1, 1}, {2, 2}, {3, 2}, {4, 3}, {9, 5},
	}
	for _, tt := range tests {
		if got := MoveCount(tt.plies); got != tt.want {
			t.Errorf("MoveCount(%d) = %d, want %d", tt.plies, got, tt.want)
		}
	}

	s, _ := newSession(t)
	if s.State().MoveCount != 1 {
		t.Errorf("MoveCount at start = %d, want 1", s.State().MoveCount)
	}
	click(t, s, "e2", ClickSelected)
	click(t, s, "e4", ClickMoved)
	click(t, s, "e7", ClickSelected)
	click(t, s, "e5", ClickMoved)
	if s.State().MoveCount != 2 {
		t.Errorf("MoveCount after two plies = %d, want 2", s.State().MoveCount)
	}
}

func TestFiftyMoveRule(t *testing.T) {
	tests := []struct {
		clock    string
		wantFlag bool
	}{
		{"99", false},
		{"100", true},
		{"120", true},
	}

	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			s := loadSession(t, "4k3/8/8/8/8/8/4P3/R3K3 w - - "+tt.clock+" 80")
			st := s.State()
			if st.FiftyMoveRule != tt.wantFlag || st.Draw != tt.wantFlag || st.GameOver != tt.wantFlag {
				t.Errorf("flags = fifty %v draw %v over %v, want %v", st.FiftyMoveRule, st.Draw, st.GameOver, tt.wantFlag)
			}
			want := ClickSelected
			if tt.wantFlag {
				want = ClickIgnored
			}
			click(t, s, "e2", want)
		})
	}
}

func TestClicksIgnoredAfterCheckmate(t *testing.T) {
	s, _ := newSession(t)
	for _, m := range [][2]string{{"f2", "f3"}, {"e7", "e5"}, {"g2", "g4"}, {"d8", "h4"}} {
		click(t, s, m[0], ClickSelected)
		click(t, s, m[1], ClickMoved)
	}

	st := s.State()
	if !st.Checkmate || !st.GameOver || st.Result() != "Black wins by checkmate" {
		t.Fatalf("state = %+v, want checkmate", st)
	}
	click(t, s, "e1", ClickIgnored)
	click(t, s, "a2", ClickIgnored)
}

func TestStalemateIsDraw(t *testing.T) {
	s := loadSession(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	st := s.State()
	if !st.Stalemate || !st.Draw || !st.GameOver || st.Checkmate {
		t.Errorf("state = %+v, want stalemate draw", st)
	}
}

func TestFlipKeepsSelection(t *testing.T) {
	s, _ := newSession(t)
	click(t, s, "a1", ClickSelected)

	normal, _ := s.Board(false).At(sq("a1"))
	flipped, _ := s.Board(true).At(sq("a1"))

	if normal.Cell != (board.Cell{Row: 7, Col: 0}) || flipped.Cell != (board.Cell{Row: 0, Col: 7}) {
		t.Errorf("a1 cells = %v / %v", normal.Cell, flipped.Cell)
	}
	if !normal.Selected || !flipped.Selected {
		t.Error("a1 not marked selected in both orientations")
	}
	if got, _ := s.Selection(); got != sq("a1") {
		t.Errorf("Selection() = %v after flip, want a1", got)
	}
}

func TestClickCellFollowsOrientation(t *testing.T) {
	s, _ := newSession(t)

	// flipped: row 1 is rank 2, col 3 is file e
	res, _, err := s.ClickCell(board.Cell{Row: 1, Col: 3}, true)
	if err != nil || res != ClickSelected {
		t.Fatalf("ClickCell = %v, %v; want selected", res, err)
	}
	if got, _ := s.Selection(); got != sq("e2") {
		t.Errorf("Selection() = %v, want e2", got)
	}

	if _, _, err := s.ClickCell(board.Cell{Row: 8, Col: 0}, false); !errors.Is(err, board.ErrInvalidCell) {
		t.Errorf("ClickCell out of range error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	s, _ := newSession(t)
	click(t, s, "e2", ClickSelected)
	click(t, s, "e4", ClickMoved)
	click(t, s, "d7", ClickSelected)
	before := s.State()

	if err := s.Load("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1"); !errors.Is(err, engine.ErrInvalidPosition) {
		t.Fatalf("Load error = %v, want ErrInvalidPosition", err)
	}
	if diff := cmp.Diff(before, s.State()); diff != "" {
		t.Errorf("failed load changed state (-want +got):\n%s", diff)
	}
	if got, ok := s.Selection(); !ok || got != sq("d7") {
		t.Errorf("failed load changed selection to %v", got)
	}

	const fen = "4k3/8/8/8/8/8/4P3/4K3 b - - 3 40"
	if err := s.Load(fen); err != nil {
		t.Fatalf("Load: %v", err)
	}
	st := s.State()
	if st.FEN != fen || st.Turn != core.ColorBlack || len(st.History) != 0 {
		t.Errorf("state after load = %+v", st)
	}
	if _, ok := s.Selection(); ok {
		t.Error("selection survived load")
	}
	if s.Export() != fen {
		t.Errorf("Export() = %s", s.Export())
	}
}

func TestLoadRejectsImpossiblePositions(t *testing.T) {
	s, _ := newSession(t)
	click(t, s, "e2", ClickSelected)
	click(t, s, "e4", ClickMoved)
	before := s.State()

	for _, fen := range []string{
		"8/8/8/8/8/8/8/8 w - - 0 1",
		"4k3/8/8/8/8/8/8/K3K3 w - - 0 1",
		"4k2P/8/8/8/8/8/8/4K3 w - - 0 1",
		"4k3/8/8/8/8/8/8/4K2r b - - 0 1",
	} {
		if err := s.Load(fen); !errors.Is(err, engine.ErrInvalidPosition) {
			t.Errorf("Load(%q) error = %v, want ErrInvalidPosition", fen, err)
		}
	}
	if diff := cmp.Diff(before, s.State()); diff != "" {
		t.Errorf("failed loads changed state (-want +got):\n%s", diff)
	}
}

func TestLoadedRightsNeedKingAndRook(t *testing.T) {
	s := loadSession(t, "4k3/8/8/8/8/8/8/4K2R w KQkq - 0 1")
	if got := s.State().FEN; got != "4k3/8/8/8/8/8/8/4K2R w K - 0 1" {
		t.Errorf("FEN after load = %s", got)
	}

	click(t, s, "e1", ClickSelected)
	if diff := cmp.Diff(squares("d1", "f1", "g1", "d2", "e2", "f2"), s.LegalMoves()); diff != "" {
		t.Errorf("king destinations (-want +got):\n%s", diff)
	}
	click(t, s, "c1", ClickDeselected)
	if got := board.PieceAt(board.Placement(s.State().FEN), sq("e1")); got != 'K' {
		t.Errorf("e1 = %q, want K", got)
	}
}

func TestNewGameResets(t *testing.T) {
	s, _ := newSession(t)
	click(t, s, "e2", ClickSelected)
	click(t, s, "e4", ClickMoved)
	click(t, s, "d7", ClickSelected)

	s.NewGame()

	st := s.State()
	if st.FEN != board.StartingFEN || len(st.History) != 0 || st.MoveCount != 1 {
		t.Errorf("state after new game = %+v", st)
	}
	if _, ok := s.Selection(); ok {
		t.Error("selection survived new game")
	}
}

func TestUnderPromotion(t *testing.T) {
	s := loadSession(t, "8/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	if err := s.SetPromotion(board.Knight); err != nil {
		t.Fatalf("SetPromotion: %v", err)
	}
	if err := s.SetPromotion(board.King); err == nil {
		t.Error("SetPromotion(king) accepted")
	}

	click(t, s, "e7", ClickSelected)
	rec := click(t, s, "e8", ClickMoved)

	if rec.Promotion != board.Knight {
		t.Errorf("promotion = %v, want n", rec.Promotion)
	}
	if got := board.PieceAt(board.Placement(s.State().FEN), sq("e8")); got != 'N' {
		t.Errorf("e8 = %q, want N", got)
	}
}

func TestHistoryNavigationIsReadOnly(t *testing.T) {
	s, _ := newSession(t)
	click(t, s, "e2", ClickSelected)
	click(t, s, "e4", ClickMoved)
	click(t, s, "e7", ClickSelected)
	click(t, s, "e5", ClickMoved)
	live := s.State()

	fen, err := s.PositionAt(0)
	if err != nil || board.Placement(fen) != board.Placement(board.StartingFEN) {
		t.Errorf("PositionAt(0) = %s, %v", fen, err)
	}

	view, err := s.BoardAt(1, false)
	if err != nil {
		t.Fatalf("BoardAt(1): %v", err)
	}
	e4, _ := view.At(sq("e4"))
	e5, _ := view.At(sq("e5"))
	if e4.Piece != "P" || !e4.LastMove || e5.Piece != "" {
		t.Errorf("BoardAt(1): e4 = %+v, e5 = %+v", e4, e5)
	}

	for _, ply := range []int{-1, 3} {
		if _, err := s.PositionAt(ply); !errors.Is(err, ErrPlyOutOfRange) {
			t.Errorf("PositionAt(%d) error = %v", ply, err)
		}
	}
	if diff := cmp.Diff(live, s.State()); diff != "" {
		t.Errorf("navigation changed live state (-want +got):\n%s", diff)
	}
}
