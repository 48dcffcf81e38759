package message

import (
	"encoding/json"
	"time"
)

// ReplyRef describes the message an inbound event replies to, when the
// platform marks the event as a reply. Attachments are the replied-to
// message's media, harvested so a reply to a photo can feed that photo
// into the new turn.
type ReplyRef struct {
	MessageID   string       `json:"message_id"`
	SenderID    string       `json:"sender_id"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// InboundMessage represents a message received from a channel.
type InboundMessage struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Channel     string          `json:"channel"`
	Sender      Sender          `json:"sender"`
	Chat        Chat            `json:"chat"`
	Body        string          `json:"body"`
	Attachments []Attachment    `json:"attachments,omitempty"`
	Mentions    *Mentions       `json:"mentions,omitempty"`
	ReplyTo     *ReplyRef       `json:"reply_to,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// MarshalJSON implements json.Marshaler. It normalizes empty Mentions to nil
// so that the field is omitted from JSON output.
func (m InboundMessage) MarshalJSON() ([]byte, error) {
	if m.Mentions.IsEmpty() {
		m.Mentions = nil
	}
	type alias InboundMessage
	return json.Marshal(alias(m))
}

// IsReply reports whether the event is a platform-level reply to a
// specific prior message.
func (m *InboundMessage) IsReply() bool {
	return m.ReplyTo != nil && m.ReplyTo.MessageID != ""
}

// MediaAttachments returns the provider-forwardable attachments of the turn:
// the replied-to message's media when the event is a reply carrying some,
// otherwise the event's own media.
func (m *InboundMessage) MediaAttachments() []Attachment {
	if m.IsReply() && len(m.ReplyTo.Attachments) > 0 {
		return MediaOnly(m.ReplyTo.Attachments)
	}
	return MediaOnly(m.Attachments)
}

// HasMedia reports whether the message itself carries media attachments.
func (m *InboundMessage) HasMedia() bool {
	return len(MediaOnly(m.Attachments)) > 0
}

// IsGroup reports whether the message was sent in a group chat.
func (m *InboundMessage) IsGroup() bool {
	return m.Chat.IsGroup()
}
