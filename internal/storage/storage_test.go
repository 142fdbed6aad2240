package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "sessions.db"), true, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.InitDB(); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func move(id string, ply int, from, to, san, color string) MoveRecord {
	return MoveRecord{
		SessionID:    id,
		Ply:          ply,
		MoveFrom:     from,
		MoveTo:       to,
		SAN:          san,
		FENAfterMove: "fen",
		PlayerColor:  color,
		MoveTimeUTC:  time.Now().UTC(),
	}
}

func plies(t *testing.T, s *Store, id string) []string {
	t.Helper()
	moves, err := s.QueryMoves(id)
	if err != nil {
		t.Fatalf("QueryMoves: %v", err)
	}
	out := []string{}
	for _, m := range moves {
		out = append(out, m.SAN)
	}
	return out
}

func TestRecordAndQuery(t *testing.T) {
	s := newTestStore(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.RecordSession(SessionRecord{SessionID: "a", InitialFEN: "start", CreatedUTC: created})
	s.RecordSession(SessionRecord{SessionID: "b", InitialFEN: "other", CreatedUTC: created.Add(time.Hour)})
	s.RecordMove(move("a", 1, "e2", "e4", "e4", "w"))
	s.RecordMove(move("a", 2, "e7", "e5", "e5", "b"))
	flush(t, s)

	all, err := s.QuerySessions("*")
	if err != nil {
		t.Fatalf("QuerySessions: %v", err)
	}
	if len(all) != 2 || all[0].SessionID != "b" {
		t.Errorf("QuerySessions(*) = %+v, want b then a", all)
	}

	one, err := s.QuerySessions("a")
	if err != nil || len(one) != 1 || one[0].InitialFEN != "start" || !one[0].CreatedUTC.Equal(created) {
		t.Errorf("QuerySessions(a) = %+v, %v", one, err)
	}

	if diff := cmp.Diff([]string{"e4", "e5"}, plies(t, s, "a")); diff != "" {
		t.Errorf("moves mismatch (-want +got):\n%s", diff)
	}
	if !s.IsHealthy() {
		t.Error("store degraded")
	}
}

func TestUndoResetAndDelete(t *testing.T) {
	s := newTestStore(t)

	s.RecordSession(SessionRecord{SessionID: "a", InitialFEN: "start", CreatedUTC: time.Now().UTC()})
	s.RecordMove(move("a", 1, "e2", "e4", "e4", "w"))
	s.RecordMove(move("a", 2, "e7", "e5", "e5", "b"))
	s.RecordMove(move("a", 3, "g1", "f3", "Nf3", "w"))
	s.DeleteMovesAfter("a", 1)
	flush(t, s)

	if diff := cmp.Diff([]string{"e4"}, plies(t, s, "a")); diff != "" {
		t.Errorf("after undo (-want +got):\n%s", diff)
	}

	s.ResetSession("a", "loaded")
	flush(t, s)
	if got := plies(t, s, "a"); len(got) != 0 {
		t.Errorf("moves after reset = %v", got)
	}
	if rec, _ := s.QuerySessions("a"); len(rec) != 1 || rec[0].InitialFEN != "loaded" {
		t.Errorf("session after reset = %+v", rec)
	}

	s.RecordMove(move("a", 1, "d2", "d4", "d4", "w"))
	s.DeleteSession("a")
	flush(t, s)
	if rec, _ := s.QuerySessions("a"); len(rec) != 0 {
		t.Errorf("session survived delete: %+v", rec)
	}
	if got := plies(t, s, "a"); len(got) != 0 {
		t.Errorf("moves survived delete: %v", got)
	}
}

func TestFailedWriteDegrades(t *testing.T) {
	s := newTestStore(t)

	s.RecordSession(SessionRecord{SessionID: "a", InitialFEN: "start", CreatedUTC: time.Now().UTC()})
	// player_color check constraint
	s.RecordMove(move("a", 1, "e2", "e4", "e4", "x"))

	deadline := time.Now().Add(5 * time.Second)
	for s.IsHealthy() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsHealthy() {
		t.Fatal("store still healthy after failed write")
	}
	if err := s.Flush(context.Background()); !errors.Is(err, ErrDegraded) {
		t.Errorf("Flush on degraded store = %v, want ErrDegraded", err)
	}

	// dropped silently
	s.RecordSession(SessionRecord{SessionID: "late", InitialFEN: "x", CreatedUTC: time.Now().UTC()})
}

func TestFlushBehindFailingWrite(t *testing.T) {
	s := newTestStore(t)

	s.RecordSession(SessionRecord{SessionID: "a", InitialFEN: "start", CreatedUTC: time.Now().UTC()})
	s.RecordMove(move("a", 1, "e2", "e4", "e4", "x"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	err := s.Flush(ctx)
	if !errors.Is(err, ErrDegraded) {
		t.Errorf("Flush = %v, want ErrDegraded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Flush took %v behind a failed write", elapsed)
	}
}

func TestCloseAppliesQueuedWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := NewStore(path, false, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.InitDB(); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	s.RecordSession(SessionRecord{SessionID: "a", InitialFEN: "start", CreatedUTC: time.Now().UTC()})
	s.RecordMove(move("a", 1, "e2", "e4", "e4", "w"))
	s.RecordMove(move("a", 2, "e7", "e5", "e5", "b"))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore(path, false, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if diff := cmp.Diff([]string{"e4", "e5"}, plies(t, reopened, "a")); diff != "" {
		t.Errorf("moves after close (-want +got):\n%s", diff)
	}
}

func TestDeleteDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.db")
	s, err := NewStore(path, false, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.InitDB(); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	if err := s.DeleteDB(); err != nil {
		t.Fatalf("DeleteDB: %v", err)
	}
	if matches, _ := filepath.Glob(path); len(matches) != 0 {
		t.Errorf("database file still present: %v", matches)
	}
}
