package channel

import (
	"testing"

	"github.com/metoushela/megan/pkg/message"
)

func inboundFrom(senderID, chatID string) message.InboundMessage {
	return message.InboundMessage{
		Sender: message.Sender{ID: senderID},
		Chat:   message.Chat{ID: chatID},
	}
}

func TestAllowList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		users  []string
		groups []string
		msg    message.InboundMessage
		want   bool
	}{
		{"nil denies", nil, nil, inboundFrom("u1", "g1"), false},
		{"listed user", []string{"u1"}, nil, inboundFrom("u1", "g1"), true},
		{"unlisted user", []string{"u2"}, nil, inboundFrom("u1", "g1"), false},
		{"listed group", nil, []string{"g1"}, inboundFrom("u1", "g1"), true},
		{"case and spacing normalized", []string{" U1 "}, nil, inboundFrom("u1", ""), true},
		{"user wildcard", []string{Wildcard}, nil, inboundFrom("anyone", "anywhere"), true},
		{"group wildcard", nil, []string{Wildcard}, inboundFrom("anyone", "anywhere"), true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var al *AllowList
			if tt.users != nil || tt.groups != nil {
				al = NewAllowList(tt.users, tt.groups)
			}
			if got := al.IsAllowed(tt.msg); got != tt.want {
				t.Errorf("IsAllowed = %v, want %v", got, tt.want)
			}
		})
	}
}
