// Package message defines the platform-agnostic data contract between channels
// and the turn router. It covers text bodies, media attachments, reply
// threading, mentions, and reactions.
package message

import "strings"

// ChatType indicates the kind of conversation.
type ChatType string

const (
	// ChatDM is a direct (one-to-one) conversation.
	ChatDM ChatType = "dm"
	// ChatGroup is a multi-participant group conversation.
	ChatGroup ChatType = "group"
)

// AttachmentKind discriminates the media type of an Attachment.
type AttachmentKind string

// Attachment kinds the router forwards to the provider. Anything else
// (stickers, shares, ...) is dropped at the channel boundary.
const (
	AttachmentPhoto AttachmentKind = "photo"
	AttachmentVideo AttachmentKind = "video"
	AttachmentAudio AttachmentKind = "audio"
)

// Attachment is one piece of external media carried by a message.
// URL must be fetchable by the provider upload step.
type Attachment struct {
	Kind     AttachmentKind `json:"kind"`
	URL      string         `json:"url"`
	MIMEType string         `json:"mime_type,omitempty"`
}

// IsMedia reports whether the attachment kind is one the provider accepts.
func (a Attachment) IsMedia() bool {
	switch a.Kind {
	case AttachmentPhoto, AttachmentVideo, AttachmentAudio:
		return true
	}
	return false
}

// MediaOnly returns the subset of attachments with a provider-accepted kind
// and a non-empty URL, preserving order.
func MediaOnly(atts []Attachment) []Attachment {
	var out []Attachment
	for _, a := range atts {
		if a.IsMedia() && a.URL != "" {
			out = append(out, a)
		}
	}
	return out
}

// Sender identifies the author of an inbound message.
type Sender struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// Chat identifies the conversation (the platform thread) a message belongs to.
type Chat struct {
	ID    string   `json:"id"`
	Type  ChatType `json:"type"`
	Title string   `json:"title,omitempty"`
}

// IsGroup reports whether the chat is a group conversation.
func (c Chat) IsGroup() bool {
	return c.Type == ChatGroup
}

// Mentions holds mention metadata extracted from an inbound message.
type Mentions struct {
	// IDs lists the user identifiers that were mentioned.
	IDs []string `json:"ids,omitempty"`
	// IsMentioned is true when the bot itself was mentioned.
	IsMentioned bool `json:"is_mentioned,omitempty"`
}

// IsEmpty reports whether the Mentions carries no data.
func (m *Mentions) IsEmpty() bool {
	return m == nil || (len(m.IDs) == 0 && !m.IsMentioned)
}

// Reaction is a lightweight emoji marker set on an existing message.
// Channels use it as a progress indicator on the message being handled.
type Reaction struct {
	Emoji    string `json:"emoji"`
	TargetID string `json:"target_id"`
}

// NormalizeID lowercases and trims a platform identifier for map keys.
func NormalizeID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
