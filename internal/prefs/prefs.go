// Package prefs persists terminal board preferences in a badger key-value store.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keyPreferences = "preferences"

// Prefs holds the terminal board settings that survive restarts.
type Prefs struct {
	Flipped   bool      `json:"flipped"`
	Theme     string    `json:"theme"`
	Promotion string    `json:"promotion"`
	SavedAt   time.Time `json:"saved_at"`
}

// Defaults returns the preferences used before anything is saved.
func Defaults() Prefs {
	return Prefs{
		Theme:     "brown",
		Promotion: "q",
	}
}

// Store wraps BadgerDB for preference storage
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a preference store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	return open(opts)
}

// OpenInMemory opens a store that is discarded on Close.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open prefs store: %w", err)
	}
	return &Store{db: db}, nil
}

// DefaultDir returns the per-user preference directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "chessboard", "prefs"), nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores p, stamping SavedAt.
func (s *Store) Save(p Prefs) error {
	p.SavedAt = time.Now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPreferences), data)
	})
}

// Load returns the saved preferences, or Defaults if none were saved.
func (s *Store) Load() (Prefs, error) {
	p := Defaults()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPreferences))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	return p, err
}

// Reset removes saved preferences.
func (s *Store) Reset() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPreferences))
	})
}
