package message

// OutboundMessage represents a message to be sent through a channel.
type OutboundMessage struct {
	Channel   string `json:"channel"`
	Chat      Chat   `json:"chat"`
	ReplyToID string `json:"reply_to_id,omitempty"`
	Body      string `json:"body"`
}

// NewReply creates an outbound message answering the given inbound message
// in its chat, threaded onto the original message.
func NewReply(in InboundMessage, body string) OutboundMessage {
	return OutboundMessage{
		Channel:   in.Channel,
		Chat:      in.Chat,
		ReplyToID: in.ID,
		Body:      body,
	}
}
