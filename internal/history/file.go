package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/metoushela/megan/internal/provider"
)

// FileStore persists one JSON file per user under a single directory.
// The directory is created lazily on the first write. Writes are atomic
// whole-file replaces (temp file + rename), so readers never observe a
// partially written transcript.
type FileStore struct {
	dir    string
	max    int
	logger *slog.Logger
}

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// FileStoreOption configures optional FileStore behavior.
type FileStoreOption func(*FileStore)

// WithMaxHistory overrides the persisted-turn cap. Non-positive values keep
// the default.
func WithMaxHistory(n int) FileStoreOption {
	return func(s *FileStore) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithLogger injects a structured logger. When omitted, storage failures are
// logged through slog.Default.
func WithLogger(l *slog.Logger) FileStoreOption {
	return func(s *FileStore) { s.logger = l }
}

// NewFileStore creates a file-backed Store rooted at dir.
func NewFileStore(dir string, opts ...FileStoreOption) *FileStore {
	s := &FileStore{dir: dir, max: DefaultMaxHistory}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Load returns the persisted turn sequence for uid. Missing files and
// corrupt JSON both yield an empty sequence; corruption is logged, not
// surfaced.
func (s *FileStore) Load(uid string) []provider.Turn {
	data, err := os.ReadFile(s.path(uid))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("history: read failed, treating as empty", "uid", uid, "error", err)
		}
		return nil
	}

	var turns []provider.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		s.logger.Warn("history: corrupt transcript, treating as empty", "uid", uid, "error", err)
		return nil
	}
	return turns
}

// Save persists the sequence truncated to the last MaxHistory turns.
// The storage directory is created on first use.
func (s *FileStore) Save(uid string, turns []provider.Turn) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("history: create directory %s: %w", s.dir, err)
	}

	data, err := json.MarshalIndent(Truncate(turns, s.max), "", "  ")
	if err != nil {
		return fmt.Errorf("history: marshal transcript for %s: %w", uid, err)
	}

	// Atomic replace: write a sibling temp file, then rename over the target.
	target := s.path(uid)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("history: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("history: write transcript for %s: %w", uid, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("history: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("history: replace transcript for %s: %w", uid, err)
	}
	return nil
}

// ClearAll deletes every persisted transcript. A failure on one file does
// not abort the remaining deletions; all failures are joined and returned.
// A missing storage directory is a no-op success, so ClearAll is idempotent.
func (s *FileStore) ClearAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("history: list %s: %w", s.dir, err)
	}

	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			errs = append(errs, fmt.Errorf("history: remove %s: %w", e.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// MaxHistory returns the configured cap on persisted turns.
func (s *FileStore) MaxHistory() int {
	return s.max
}

// path returns the transcript file for uid. The identifier is flattened so
// a crafted uid cannot escape the storage directory.
func (s *FileStore) path(uid string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, uid)
	return filepath.Join(s.dir, safe+"_history.json")
}
