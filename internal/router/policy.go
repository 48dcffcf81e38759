package router

import (
	"strings"

	"github.com/metoushela/megan/pkg/message"
)

// DefaultTriggerPrefixes are the words that summon the assistant.
var DefaultTriggerPrefixes = []string{"edu", "ai", "bot", "ask"}

// DefaultClearCommands are the admin phrases that wipe every stored
// transcript. Matching is case-insensitive substring.
var DefaultClearCommands = []string{
	"clean all",
	"effacer historique",
	"supprimer mémoire",
	"reset mémoire",
	"clear all",
}

// Game commands recognized ahead of the assistant triggers.
var gameCommands = []string{"tictactoe", "ttt"}

// TriggerPolicy decides which inbound messages address the assistant and
// extracts the prompt from them.
type TriggerPolicy struct {
	prefixes []string
	clear    []string
}

// NewTriggerPolicy builds a policy. Empty slices fall back to the defaults.
func NewTriggerPolicy(prefixes, clearCommands []string) TriggerPolicy {
	if len(prefixes) == 0 {
		prefixes = DefaultTriggerPrefixes
	}
	if len(clearCommands) == 0 {
		clearCommands = DefaultClearCommands
	}
	return TriggerPolicy{prefixes: prefixes, clear: clearCommands}
}

// Match reports whether body starts with a trigger prefix and returns the
// prompt that follows it, trimmed. The comparison is case-insensitive.
func (p TriggerPolicy) Match(body string) (string, bool) {
	lower := strings.ToLower(body)
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(lower, strings.ToLower(prefix)) {
			return strings.TrimSpace(body[len(prefix):]), true
		}
	}
	return "", false
}

// IsClearCommand reports whether the prompt contains one of the clear-all
// phrases.
func (p TriggerPolicy) IsClearCommand(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, cmd := range p.clear {
		if strings.Contains(lower, cmd) {
			return true
		}
	}
	return false
}

// MatchGameStart reports whether body is a tic-tac-toe start command and
// returns the raw arguments that follow it.
func MatchGameStart(body string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(body))
	for _, cmd := range gameCommands {
		if lower == cmd {
			return "", true
		}
		if strings.HasPrefix(lower, cmd+" ") {
			return strings.TrimSpace(strings.TrimSpace(body)[len(cmd):]), true
		}
	}
	return "", false
}

// AdminPolicy lists the users allowed to run destructive commands. An empty
// policy denies everyone.
type AdminPolicy struct {
	admins map[string]struct{}
}

// NewAdminPolicy builds a policy from a list of user IDs.
func NewAdminPolicy(ids []string) AdminPolicy {
	p := AdminPolicy{admins: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		p.admins[message.NormalizeID(id)] = struct{}{}
	}
	return p
}

// IsAdmin reports whether the user may run admin commands.
func (p AdminPolicy) IsAdmin(userID string) bool {
	_, ok := p.admins[message.NormalizeID(userID)]
	return ok
}
