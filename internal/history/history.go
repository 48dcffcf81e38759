// Package history provides the durable, per-user bounded transcript store.
// The default backend keeps one JSON file per user identifier; an alternative
// SQLite backend lives in modules/history/sqlite.
package history

import "github.com/metoushela/megan/internal/provider"

// DefaultMaxHistory is the default cap on persisted turns per user.
const DefaultMaxHistory = 25

// Store manages per-user conversation transcripts.
// Implementations must be safe for concurrent use.
//
// Error contract: storage failures are deliberately soft. Load swallows
// missing or corrupt data and returns an empty transcript; Save reports the
// failure but callers must treat it as non-fatal (the in-memory exchange
// still completes, only durability is lost).
type Store interface {
	// Load returns the persisted turn sequence for uid, oldest first.
	// Missing or unreadable data yields an empty sequence.
	Load(uid string) []provider.Turn

	// Save persists the sequence truncated to the last MaxHistory turns,
	// oldest evicted first. The write replaces the previous transcript
	// atomically.
	Save(uid string, turns []provider.Turn) error

	// ClearAll deletes every user's persisted transcript. Partial failure
	// still deletes whatever it can; calling it on empty storage is a no-op
	// success.
	ClearAll() error

	// MaxHistory returns the configured cap on persisted turns.
	MaxHistory() int
}

// Truncate returns the suffix of turns capped at max, preserving order.
// A non-positive max means no cap.
func Truncate(turns []provider.Turn, max int) []provider.Turn {
	if max <= 0 || len(turns) <= max {
		return turns
	}
	return turns[len(turns)-max:]
}
