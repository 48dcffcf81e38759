package router

import (
	"fmt"

	"github.com/metoushela/megan/pkg/message"
)

// SessionKey identifies one conversational lane: a sender inside a thread
// on a channel. Lane serialization and continuation ownership both key on it.
type SessionKey struct {
	Channel  string
	ThreadID string
	SenderID string
}

// SessionKeyFromMessage derives the SessionKey for an inbound message.
func SessionKeyFromMessage(msg message.InboundMessage) SessionKey {
	return SessionKey{
		Channel:  msg.Channel,
		ThreadID: msg.Chat.ID,
		SenderID: msg.Sender.ID,
	}
}

// RequestKey identifies one in-flight turn. The arrival timestamp is part of
// the key, so two distinct messages from the same sender are distinct
// requests while a duplicated delivery of the same event collides.
type RequestKey struct {
	Session SessionKey
	// ArrivalMS is the event timestamp in Unix milliseconds.
	ArrivalMS int64
}

// RequestKeyFromMessage derives the RequestKey for an inbound message.
func RequestKeyFromMessage(msg message.InboundMessage) RequestKey {
	return RequestKey{
		Session:   SessionKeyFromMessage(msg),
		ArrivalMS: msg.Timestamp.UnixMilli(),
	}
}

// String renders the key in thread_sender_timestamp form.
func (k RequestKey) String() string {
	return fmt.Sprintf("%s_%s_%d", k.Session.ThreadID, k.Session.SenderID, k.ArrivalMS)
}
