package messenger

import (
	"encoding/json"
	"time"

	"github.com/metoushela/megan/pkg/message"
)

// Wire types for the platform's event payloads.

type wireEvent struct {
	Type        string           `json:"type"`
	MessageID   string           `json:"message_id"`
	TimestampMS int64            `json:"timestamp"`
	ThreadID    string           `json:"thread_id"`
	IsGroup     bool             `json:"is_group"`
	ThreadName  string           `json:"thread_name,omitempty"`
	Sender      wireSender       `json:"sender"`
	Body        string           `json:"body"`
	Attachments []wireAttachment `json:"attachments,omitempty"`
	Mentions    []wireSender     `json:"mentions,omitempty"`
	ReplyTo     *wireReply       `json:"reply_to,omitempty"`
}

type wireSender struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type wireAttachment struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	MIMEType string `json:"mime_type,omitempty"`
}

type wireReply struct {
	MessageID   string           `json:"message_id"`
	SenderID    string           `json:"sender_id"`
	Attachments []wireAttachment `json:"attachments,omitempty"`
}

// attachmentKinds maps platform attachment types onto the router's kinds.
// Unlisted types (stickers, shares, files) are dropped at this boundary.
var attachmentKinds = map[string]message.AttachmentKind{
	"photo": message.AttachmentPhoto,
	"image": message.AttachmentPhoto,
	"video": message.AttachmentVideo,
	"audio": message.AttachmentAudio,
	"voice": message.AttachmentAudio,
}

// convertEvent maps a platform event onto the router's inbound shape.
// The second return is false for event types the router does not consume.
func convertEvent(ev wireEvent, raw json.RawMessage) (message.InboundMessage, bool) {
	if ev.Type != "message" && ev.Type != "message_reply" {
		return message.InboundMessage{}, false
	}
	if ev.MessageID == "" || ev.Sender.ID == "" {
		return message.InboundMessage{}, false
	}

	chatType := message.ChatDM
	if ev.IsGroup {
		chatType = message.ChatGroup
	}

	in := message.InboundMessage{
		ID:        ev.MessageID,
		Timestamp: time.UnixMilli(ev.TimestampMS),
		Channel:   moduleID,
		Sender: message.Sender{
			ID:          ev.Sender.ID,
			DisplayName: ev.Sender.Name,
		},
		Chat: message.Chat{
			ID:    ev.ThreadID,
			Type:  chatType,
			Title: ev.ThreadName,
		},
		Body:        ev.Body,
		Attachments: convertAttachments(ev.Attachments),
		Raw:         raw,
	}

	if len(ev.Mentions) > 0 {
		m := &message.Mentions{}
		for _, s := range ev.Mentions {
			m.IDs = append(m.IDs, s.ID)
		}
		in.Mentions = m
	}

	if ev.ReplyTo != nil && ev.ReplyTo.MessageID != "" {
		in.ReplyTo = &message.ReplyRef{
			MessageID:   ev.ReplyTo.MessageID,
			SenderID:    ev.ReplyTo.SenderID,
			Attachments: convertAttachments(ev.ReplyTo.Attachments),
		}
	}

	return in, true
}

func convertAttachments(atts []wireAttachment) []message.Attachment {
	var out []message.Attachment
	for _, a := range atts {
		kind, ok := attachmentKinds[a.Type]
		if !ok || a.URL == "" {
			continue
		}
		out = append(out, message.Attachment{
			Kind:     kind,
			URL:      a.URL,
			MIMEType: a.MIMEType,
		})
	}
	return out
}
