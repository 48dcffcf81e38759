// Package continuation maps outgoing bot message IDs back to the session
// they belong to, so a user replying to one of the bot's answers is routed
// into the same conversation without re-typing a trigger word.
package continuation

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Entry records who may continue a session from a given bot message.
type Entry struct {
	// OwnerID is the sender whose turn produced the bot message. Only this
	// sender's replies resolve; anyone else replying to the same message is
	// ignored.
	OwnerID string

	// ThreadID is the conversation the exchange happened in.
	ThreadID string

	// Command names the handler that owns the session ("ai" for the
	// assistant). Replies route back to the same handler.
	Command string
}

// Tracker is a concurrency-safe registry of continuation entries. Entries
// are keyed by the platform message ID of the bot's outgoing answer.
//
// Retention is configurable: by default entries live until Forget or process
// exit, matching the answer-and-listen behavior of the original command. A
// size cap or TTL bounds memory on long-running deployments.
type Tracker struct {
	entries *expirable.LRU[string, Entry]
}

// Option configures Tracker retention.
type Option func(*settings)

type settings struct {
	maxEntries int
	ttl        time.Duration
}

// WithMaxEntries caps the number of live entries; the least recently used
// entry is evicted when the cap is exceeded. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithTTL expires entries that have not been touched for d. Zero means no
// expiry.
func WithTTL(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// New builds a Tracker. Without options it retains entries indefinitely.
func New(opts ...Option) *Tracker {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return &Tracker{
		entries: expirable.NewLRU[string, Entry](s.maxEntries, nil, s.ttl),
	}
}

// Register records that replies to botMessageID continue the given session.
func (t *Tracker) Register(botMessageID string, e Entry) {
	if botMessageID == "" {
		return
	}
	t.entries.Add(botMessageID, e)
}

// Resolve looks up the session behind botMessageID for senderID. It returns
// false when the message is not one of the bot's tracked answers, or when
// the sender is not the session owner. A successful resolve keeps the entry
// alive: several follow-up replies to the same answer are allowed.
func (t *Tracker) Resolve(botMessageID, senderID string) (Entry, bool) {
	e, ok := t.entries.Get(botMessageID)
	if !ok {
		return Entry{}, false
	}
	if e.OwnerID != senderID {
		return Entry{}, false
	}
	return e, true
}

// Registered reports whether botMessageID is a tracked bot answer,
// regardless of who asks. Used to tell "not our message" apart from
// "someone else's session".
func (t *Tracker) Registered(botMessageID string) bool {
	return t.entries.Contains(botMessageID)
}

// Forget drops the entry for botMessageID, if any.
func (t *Tracker) Forget(botMessageID string) {
	t.entries.Remove(botMessageID)
}

// Len returns the number of live entries.
func (t *Tracker) Len() int {
	return t.entries.Len()
}

// Purge drops every entry.
func (t *Tracker) Purge() {
	t.entries.Purge()
}
