package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/metoushela/megan/internal/history"
	"github.com/metoushela/megan/internal/provider"
)

// Compile-time interface guard.
var _ history.Store = (*Store)(nil)

// Store is a SQLite-backed history.Store.
type Store struct {
	db     *sql.DB
	max    int
	logger *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithMaxHistory overrides the persisted-turn cap. Non-positive values keep
// the default.
func WithMaxHistory(max int) Option {
	return func(s *Store) {
		if max > 0 {
			s.max = max
		}
	}
}

// WithLogger sets the logger used for soft-failure warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens (creating if needed) the database at path and returns a ready
// Store. The caller must Close it when done.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:     db,
		max:    history.DefaultMaxHistory,
		logger: slog.New(nopHandler{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the persisted turn sequence for uid, oldest first.
// A missing row or undecodable payload yields an empty sequence.
func (s *Store) Load(uid string) []provider.Turn {
	var raw string
	err := s.db.QueryRowContext(context.TODO(),
		"SELECT turns FROM transcripts WHERE uid = ?", uid,
	).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("transcript read failed, starting fresh", "uid", uid, "error", err)
		}
		return nil
	}

	var turns []provider.Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		s.logger.Warn("transcript corrupt, starting fresh", "uid", uid, "error", err)
		return nil
	}
	return turns
}

// Save replaces the transcript for uid with the sequence truncated to the
// last MaxHistory turns.
func (s *Store) Save(uid string, turns []provider.Turn) error {
	turns = history.Truncate(turns, s.max)

	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("sqlite: marshal transcript: %w", err)
	}

	_, err = s.db.ExecContext(context.TODO(), `
		INSERT OR REPLACE INTO transcripts (uid, turns, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))`,
		uid, string(raw),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save transcript: %w", err)
	}
	return nil
}

// ClearAll deletes every stored transcript.
func (s *Store) ClearAll() error {
	if _, err := s.db.ExecContext(context.TODO(), "DELETE FROM transcripts"); err != nil {
		return fmt.Errorf("sqlite: clear transcripts: %w", err)
	}
	return nil
}

// MaxHistory returns the configured cap on persisted turns.
func (s *Store) MaxHistory() int {
	return s.max
}

// nopHandler is a slog.Handler that drops everything.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
