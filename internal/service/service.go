// FILE: internal/service/service.go
package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"chessboard/internal/board"
	"chessboard/internal/engine"
	"chessboard/internal/game"
	"chessboard/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxSessions caps the number of live sessions
const MaxSessions = 1000

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionLimit    = errors.New("session limit reached")
)

// entry guards one session; game.Session itself is single-threaded
type entry struct {
	mu      sync.Mutex
	session *game.Session
	flipped bool
	version int
	created time.Time
}

// Service owns isolated board sessions with optional persistence
type Service struct {
	sessions  map[string]*entry
	mu        sync.RWMutex
	store     *storage.Store // nil if persistence disabled
	waiter    *WaitRegistry
	log       *zap.Logger
	newOracle func() engine.Oracle
	secret    []byte
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithOracle replaces the rules backend used for new sessions
func WithOracle(factory func() engine.Oracle) Option {
	return func(s *Service) {
		s.newOracle = factory
	}
}

// New creates a new service instance with optional storage
func New(store *storage.Store, opts ...Option) (*Service, error) {
	s := &Service{
		sessions:  make(map[string]*entry),
		store:     store,
		waiter:    NewWaitRegistry(),
		log:       zap.NewNop(),
		newOracle: func() engine.Oracle { return engine.New() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.secret) == 0 {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		s.secret = secret
	}
	return s, nil
}

// generateID creates a unique session ID, caller holds s.mu
func (s *Service) generateID() string {
	for {
		id := uuid.New().String()
		if _, exists := s.sessions[id]; !exists {
			return id
		}
	}
}

// lookup finds a session and locks it; the caller must unlock e.mu
func (s *Service) lookup(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	e.mu.Lock()
	return e, nil
}

// bump records a visible change and wakes waiters, caller holds e.mu
func (s *Service) bump(id string, e *entry) {
	e.version++
	s.waiter.NotifySession(id, e.version)
}

// Count returns the number of live sessions
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Delete removes a session from memory and storage
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	s.waiter.RemoveSession(id)
	if s.store != nil {
		s.store.DeleteSession(id)
	}
	s.log.Info("session deleted", zap.String("session", id))
	return nil
}

// StorageHealth returns the storage component status
func (s *Service) StorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// Shutdown releases waiters, then drops all sessions and closes storage
func (s *Service) Shutdown(timeout time.Duration) error {
	werr := s.waiter.Shutdown(timeout)

	s.mu.Lock()
	s.sessions = make(map[string]*entry)
	s.mu.Unlock()

	var serr error
	if s.store != nil {
		serr = s.store.Close()
	}
	return errors.Join(werr, serr)
}

// snapshot is built under e.mu
func snapshot(id string, e *entry) Snapshot {
	sel, _ := e.session.Selection()
	return Snapshot{
		ID:        id,
		Version:   e.version,
		Flipped:   e.flipped,
		Promotion: e.session.Promotion(),
		Selection: sel,
		Legal:     e.session.LegalMoves(),
		State:     e.session.State(),
		Board:     e.session.Board(e.flipped),
		Created:   e.created,
	}
}

// Snapshot is a consistent read of one session.
type Snapshot struct {
	ID        string
	Version   int
	Flipped   bool
	Promotion board.PieceType
	Selection board.Square
	Legal     []board.Square
	State     game.State
	Board     board.View
	Created   time.Time
}
