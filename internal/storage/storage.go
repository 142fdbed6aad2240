// FILE: internal/storage/storage.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// ErrDegraded is returned by Flush once a write has failed
var ErrDegraded = errors.New("storage degraded")

// writeOp is one queued item: a transactional write, or a Flush barrier
// closed by the writer once everything ahead of it has been handled
type writeOp struct {
	fn      func(*sql.Tx) error
	barrier chan struct{}
}

// Store handles SQLite database operations with async writes
type Store struct {
	db           *sql.DB
	path         string
	writeChan    chan writeOp
	healthStatus atomic.Bool
	log          *zap.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewStore creates a new storage instance with async writer. A nil logger
// discards diagnostics.
func NewStore(dataSourceName string, devMode bool, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL in development for concurrent readers while the server writes
	if devMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		db:        db,
		path:      dataSourceName,
		writeChan: make(chan writeOp, 1000),
		log:       logger,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.healthStatus.Store(true)

	s.wg.Add(1)
	go s.writerLoop()

	return s, nil
}

// writerLoop processes async write operations. Barriers are released even
// when degraded so Flush never waits on a dead queue.
func (s *Store) writerLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			// Drain what is already queued, then stop
			for {
				select {
				case op := <-s.writeChan:
					s.handle(op)
				default:
					return
				}
			}

		case op := <-s.writeChan:
			s.handle(op)
		}
	}
}

func (s *Store) handle(op writeOp) {
	if op.barrier != nil {
		close(op.barrier)
		return
	}
	if s.healthStatus.Load() {
		s.executeWrite(op.fn)
	}
}

// executeWrite runs a transactional write operation
func (s *Store) executeWrite(fn func(*sql.Tx) error) {
	tx, err := s.db.Begin()
	if err != nil {
		s.degrade("begin transaction", err)
		return
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		s.degrade("write operation", err)
		return
	}

	if err := tx.Commit(); err != nil {
		s.degrade("commit", err)
	}
}

func (s *Store) degrade(op string, err error) {
	s.log.Error("storage degraded", zap.String("op", op), zap.Error(err))
	s.healthStatus.Store(false)
}

// enqueue hands a write to the writer goroutine, dropping it when degraded or
// when the queue is full
func (s *Store) enqueue(what string, fn func(*sql.Tx) error) {
	if !s.healthStatus.Load() {
		return
	}

	select {
	case s.writeChan <- writeOp{fn: fn}:
	default:
		s.log.Warn("storage write queue full, dropping write", zap.String("record", what))
	}
}

// RecordSession asynchronously records a new session
func (s *Store) RecordSession(record SessionRecord) {
	s.enqueue("session", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO sessions (session_id, initial_fen, created_utc) VALUES (?, ?, ?)`,
			record.SessionID, record.InitialFEN, record.CreatedUTC,
		)
		return err
	})
}

// RecordMove asynchronously records a move
func (s *Store) RecordMove(record MoveRecord) {
	s.enqueue("move", func(tx *sql.Tx) error {
		query := `INSERT INTO moves (
			session_id, ply, move_from, move_to, san, fen_after_move, player_color, move_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

		_, err := tx.Exec(query,
			record.SessionID, record.Ply, record.MoveFrom, record.MoveTo, record.SAN,
			record.FENAfterMove, record.PlayerColor, record.MoveTimeUTC,
		)
		return err
	})
}

// DeleteMovesAfter asynchronously deletes moves past ply, used on undo
func (s *Store) DeleteMovesAfter(sessionID string, ply int) {
	s.enqueue("undo", func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM moves WHERE session_id = ? AND ply > ?`, sessionID, ply)
		return err
	})
}

// ResetSession asynchronously drops a session's moves and sets a new start
// position, used on new game and load
func (s *Store) ResetSession(sessionID, initialFEN string) {
	s.enqueue("reset", func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM moves WHERE session_id = ?`, sessionID); err != nil {
			return err
		}
		_, err := tx.Exec(`UPDATE sessions SET initial_fen = ? WHERE session_id = ?`, initialFEN, sessionID)
		return err
	})
}

// DeleteSession asynchronously removes a session and its moves
func (s *Store) DeleteSession(sessionID string) {
	s.enqueue("delete", func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM moves WHERE session_id = ?`, sessionID); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID)
		return err
	})
}

// Flush blocks until every write queued before the call has been handled. It
// reports ErrDegraded if the store is, or becomes, degraded.
func (s *Store) Flush(ctx context.Context) error {
	if !s.healthStatus.Load() {
		return ErrDegraded
	}

	done := make(chan struct{})
	select {
	case s.writeChan <- writeOp{barrier: done}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		if !s.healthStatus.Load() {
			return ErrDegraded
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsHealthy returns the current health status
func (s *Store) IsHealthy() bool {
	return s.healthStatus.Load()
}

// Close gracefully closes the database connection
func (s *Store) Close() error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.log.Warn("storage writer shutdown timeout, some writes may be lost")
	}

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitDB creates the database schema
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return tx.Commit()
}

// DeleteDB removes the database file
func (s *Store) DeleteDB() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	// ☣ DESTRUCTIVE: Removes database file
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}

	return nil
}

// QuerySessions retrieves sessions, all of them for an empty or "*" id
func (s *Store) QuerySessions(sessionID string) ([]SessionRecord, error) {
	query := `SELECT session_id, initial_fen, created_utc FROM sessions WHERE 1=1`

	var args []interface{}
	if sessionID != "" && sessionID != "*" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY created_utc DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(&r.SessionID, &r.InitialFEN, &r.CreatedUTC); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		sessions = append(sessions, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return sessions, nil
}

// QueryMoves retrieves a session's moves in ply order
func (s *Store) QueryMoves(sessionID string) ([]MoveRecord, error) {
	rows, err := s.db.Query(`SELECT
		move_id, session_id, ply, move_from, move_to, san, fen_after_move, player_color, move_time_utc
	FROM moves WHERE session_id = ? ORDER BY ply`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		err := rows.Scan(
			&m.MoveID, &m.SessionID, &m.Ply, &m.MoveFrom, &m.MoveTo, &m.SAN,
			&m.FENAfterMove, &m.PlayerColor, &m.MoveTimeUTC,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return moves, nil
}
