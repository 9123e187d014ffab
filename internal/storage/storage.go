// Package storage persists analysis sessions and user preferences in a
// local Badger database.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/marchett/deepline/internal/analysis"
)

// Storage keys
const (
	keyPreferences   = "preferences"
	sessionKeyPrefix = "session:"
)

// envDataDir overrides the database location; tests and scripted runs point
// it at a scratch directory.
const envDataDir = "DEEPLINE_DATA_DIR"

// Preferences stores the user's default analysis settings. CLI flags
// override them per run.
type Preferences struct {
	WorkerCount int       `json:"worker_count"`
	MaxDepth    int       `json:"max_depth"`
	MaxPlans    int       `json:"max_plans"`
	LastUsed    time.Time `json:"last_used"`
}

// DefaultPreferences returns the defaults used before anything was saved.
func DefaultPreferences() *Preferences {
	return &Preferences{
		WorkerCount: 4,
		MaxDepth:    5,
		MaxPlans:    64,
	}
}

// Session is one completed analysis run.
type Session struct {
	FEN       string          `json:"fen"`
	Lines     []analysis.Line `json:"lines"`
	Stats     analysis.Stats  `json:"stats"`
	CreatedAt time.Time       `json:"created_at"`
}

// Storage wraps BadgerDB for persistent storage.
type Storage struct {
	db *badger.DB
}

// Open opens the database in the resolved deepline data directory.
func Open() (*Storage, error) {
	dbDir, err := databaseDir()
	if err != nil {
		return nil, err
	}
	return OpenAt(dbDir)
}

// databaseDir resolves where the Badger database lives: an explicit
// DEEPLINE_DATA_DIR wins, otherwise a deepline directory under the per-user
// config root. The db subdirectory keeps Badger's files apart from anything
// else that may land in the data directory.
func databaseDir() (string, error) {
	base := os.Getenv(envDataDir)
	if base == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolve data dir: %w", err)
		}
		base = filepath.Join(cfgDir, "deepline")
	}
	dbDir := filepath.Join(base, "db")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return "", err
	}
	return dbDir, nil
}

// OpenAt opens the database at an explicit directory.
func OpenAt(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open storage at %s: %w", dir, err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SavePreferences saves the user's default analysis settings.
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastUsed = time.Now()

	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPreferences), data)
	})
}

// LoadPreferences loads the saved settings, returning defaults if none
// were ever saved.
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPreferences))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, prefs)
		})
	})
	return prefs, err
}

// sessionKey derives a stable key from the analyzed FEN.
func sessionKey(fen string) []byte {
	return []byte(sessionKeyPrefix + fen)
}

// SaveSession stores the final line set of a completed run under its FEN,
// replacing any previous session for the same position.
func (s *Storage) SaveSession(sess *Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(sess.FEN), data)
	})
}

// LoadSession returns the saved session for a FEN, or (nil, nil) when none
// exists.
func (s *Storage) LoadSession(fen string) (*Session, error) {
	var sess *Session

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(fen))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			sess = new(Session)
			return json.Unmarshal(val, sess)
		})
	})
	return sess, err
}

// ListSessions returns every saved session's FEN.
func (s *Storage) ListSessions() ([]string, error) {
	var fens []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			fens = append(fens, strings.TrimPrefix(key, sessionKeyPrefix))
		}
		return nil
	})
	return fens, err
}

// DeleteSession removes the saved session for a FEN, if any.
func (s *Storage) DeleteSession(fen string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(sessionKey(fen))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}
