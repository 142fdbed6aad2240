// FILE: internal/service/game.go
package service

import (
	"context"
	"fmt"
	"time"

	"chessboard/internal/board"
	"chessboard/internal/engine"
	"chessboard/internal/game"
	"chessboard/internal/storage"

	"go.uber.org/zap"
)

// CreateSession starts a session at fen, or the standard position when fen is
// empty. A zero promotion keeps the queen default.
func (s *Service) CreateSession(fen string, promotion board.PieceType) (Snapshot, error) {
	oracle := s.newOracle()
	if fen != "" {
		if err := oracle.Load(fen); err != nil {
			return Snapshot{}, err
		}
	}

	opts := []game.Option{game.WithLogger(s.log)}
	if promotion != board.NoPieceType {
		if _, ok := board.ParsePromotion(promotion.String()); !ok {
			return Snapshot{}, fmt.Errorf("invalid promotion piece %q", promotion.String())
		}
		opts = append(opts, game.WithPromotion(promotion))
	}

	e := &entry{
		session: game.New(oracle, opts...),
		created: time.Now().UTC(),
	}

	s.mu.Lock()
	if len(s.sessions) >= MaxSessions {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionLimit
	}
	id := s.generateID()
	s.sessions[id] = e
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if s.store != nil {
		s.store.RecordSession(storage.SessionRecord{
			SessionID:  id,
			InitialFEN: e.session.Export(),
			CreatedUTC: e.created,
		})
	}
	s.log.Info("session created", zap.String("session", id))

	return snapshot(id, e), nil
}

// Get returns a snapshot of a session
func (s *Service) Get(id string) (Snapshot, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	defer e.mu.Unlock()

	return snapshot(id, e), nil
}

// Click runs a square click through the session's selection machine
func (s *Service) Click(id string, sq board.Square) (game.ClickResult, Snapshot, error) {
	e, err := s.lookup(id)
	if err != nil {
		return game.ClickIgnored, Snapshot{}, err
	}
	defer e.mu.Unlock()

	res, rec := e.session.Click(sq)
	s.afterClick(id, e, res, rec)
	return res, snapshot(id, e), nil
}

// ClickCell clicks a visual cell in the session's current orientation
func (s *Service) ClickCell(id string, c board.Cell) (game.ClickResult, Snapshot, error) {
	e, err := s.lookup(id)
	if err != nil {
		return game.ClickIgnored, Snapshot{}, err
	}
	defer e.mu.Unlock()

	res, rec, err := e.session.ClickCell(c, e.flipped)
	if err != nil {
		return game.ClickIgnored, Snapshot{}, err
	}
	s.afterClick(id, e, res, rec)
	return res, snapshot(id, e), nil
}

func (s *Service) afterClick(id string, e *entry, res game.ClickResult, rec engine.MoveRecord) {
	if !res.Changed() {
		return
	}
	if res == game.ClickMoved && s.store != nil {
		st := e.session.State()
		s.store.RecordMove(storage.MoveRecord{
			SessionID:    id,
			Ply:          len(st.History),
			MoveFrom:     rec.From.String(),
			MoveTo:       rec.To.String(),
			SAN:          rec.SAN,
			FENAfterMove: st.FEN,
			PlayerColor:  rec.Color.String(),
			MoveTimeUTC:  time.Now().UTC(),
		})
	}
	s.bump(id, e)
}

// Undo takes back one ply. The bool is false when there was nothing to undo.
func (s *Service) Undo(id string) (Snapshot, bool, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, false, err
	}
	defer e.mu.Unlock()

	_, selected := e.session.Selection()
	_, ok := e.session.Undo()
	if ok && s.store != nil {
		s.store.DeleteMovesAfter(id, e.session.Plies())
	}
	// A refused undo only changes anything if it dropped a selection
	if ok || selected {
		s.bump(id, e)
	}
	return snapshot(id, e), ok, nil
}

// Reset starts a new game in the session
func (s *Service) Reset(id string) (Snapshot, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	defer e.mu.Unlock()

	e.session.NewGame()
	if s.store != nil {
		s.store.ResetSession(id, e.session.Export())
	}
	s.bump(id, e)
	return snapshot(id, e), nil
}

// Load replaces the session's position. On error the session is unchanged.
func (s *Service) Load(id, fen string) (Snapshot, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	defer e.mu.Unlock()

	if err := e.session.Load(fen); err != nil {
		return Snapshot{}, err
	}
	if s.store != nil {
		s.store.ResetSession(id, e.session.Export())
	}
	s.bump(id, e)
	return snapshot(id, e), nil
}

// SetView changes orientation and, when non-zero, the promotion piece
func (s *Service) SetView(id string, flipped bool, promotion board.PieceType) (Snapshot, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	defer e.mu.Unlock()

	if promotion != board.NoPieceType {
		if err := e.session.SetPromotion(promotion); err != nil {
			return Snapshot{}, err
		}
	}
	e.flipped = flipped
	s.bump(id, e)
	return snapshot(id, e), nil
}

// BoardAt renders a past position in the session's orientation
func (s *Service) BoardAt(id string, ply int) (board.View, string, error) {
	e, err := s.lookup(id)
	if err != nil {
		return board.View{}, "", err
	}
	defer e.mu.Unlock()

	view, err := e.session.BoardAt(ply, e.flipped)
	if err != nil {
		return board.View{}, "", err
	}
	fen, _ := e.session.PositionAt(ply)
	return view, fen, nil
}

// Wait blocks until the session's version differs from version, the wait
// times out or ctx ends, then returns the current snapshot.
func (s *Service) Wait(ctx context.Context, id string, version int) (Snapshot, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	if e.version != version {
		defer e.mu.Unlock()
		return snapshot(id, e), nil
	}
	// register before releasing the lock so no bump is missed
	notify := s.waiter.RegisterWait(ctx, id, version)
	e.mu.Unlock()

	select {
	case <-notify:
	case <-ctx.Done():
	}
	return s.Get(id)
}
