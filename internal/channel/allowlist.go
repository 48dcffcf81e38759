package channel

import "github.com/metoushela/megan/pkg/message"

// Wildcard entry accepting every user or every group.
const Wildcard = "*"

// AllowList controls which users and groups may interact with a channel.
// An empty or nil AllowList denies everyone; a public bot lists the
// Wildcard entry instead.
type AllowList struct {
	users     map[string]struct{}
	groups    map[string]struct{}
	allUsers  bool
	allGroups bool
}

// NewAllowList creates an AllowList with O(1) lookups. Entries are trimmed
// and lowercased at construction time.
func NewAllowList(users, groups []string) *AllowList {
	a := &AllowList{
		users:  make(map[string]struct{}, len(users)),
		groups: make(map[string]struct{}, len(groups)),
	}
	for _, u := range users {
		if u == Wildcard {
			a.allUsers = true
			continue
		}
		a.users[message.NormalizeID(u)] = struct{}{}
	}
	for _, g := range groups {
		if g == Wildcard {
			a.allGroups = true
			continue
		}
		a.groups[message.NormalizeID(g)] = struct{}{}
	}
	return a
}

// IsAllowed reports whether the message sender or chat is permitted.
//
// Rules:
//   - A wildcard user entry allows every sender; a wildcard group entry
//     allows every chat.
//   - Otherwise the sender ID must match a user entry, or the chat ID a
//     group entry.
//   - An empty AllowList denies everyone.
func (a *AllowList) IsAllowed(msg message.InboundMessage) bool {
	if a == nil {
		return false
	}
	if a.allUsers || a.allGroups {
		return true
	}
	if _, ok := a.users[message.NormalizeID(msg.Sender.ID)]; ok {
		return true
	}
	if _, ok := a.groups[message.NormalizeID(msg.Chat.ID)]; ok {
		return true
	}
	return false
}
