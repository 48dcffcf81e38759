package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/metoushela/megan/pkg/message"
)

func TestDispatcherSendRoutesToChannel(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	mock := NewMockChannel("messenger", nil)
	if err := d.Register("messenger", mock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	id, err := d.Send(context.Background(), message.OutboundMessage{
		Channel: "messenger",
		Body:    "salut",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id != "sent-1" {
		t.Errorf("message ID = %q, want %q", id, "sent-1")
	}
	if got := mock.SentMessages(); len(got) != 1 || got[0].Body != "salut" {
		t.Errorf("recorded messages = %+v", got)
	}
}

func TestDispatcherSendUnknownChannel(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	_, err := d.Send(context.Background(), message.OutboundMessage{Channel: "nope"})
	if !errors.Is(err, ErrNoChannel) {
		t.Errorf("error = %v, want ErrNoChannel", err)
	}
}

func TestDispatcherReact(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	mock := NewMockChannel("messenger", nil)
	if err := d.Register("messenger", mock); err != nil {
		t.Fatal(err)
	}

	r := message.Reaction{Emoji: "🌀", TargetID: "m1"}
	if err := d.React(context.Background(), "messenger", r); err != nil {
		t.Fatalf("React: %v", err)
	}
	if got := mock.Reactions(); len(got) != 1 || got[0] != r {
		t.Errorf("recorded reactions = %+v", got)
	}

	if err := d.React(context.Background(), "ghost", r); !errors.Is(err, ErrNoChannel) {
		t.Errorf("error = %v, want ErrNoChannel", err)
	}
}

func TestDispatcherDuplicateRegistration(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	if err := d.Register("a", NewMockChannel("a", nil)); err != nil {
		t.Fatal(err)
	}
	if err := d.Register("a", NewMockChannel("a", nil)); !errors.Is(err, ErrDuplicateChannel) {
		t.Errorf("error = %v, want ErrDuplicateChannel", err)
	}
}

func TestMockSimulateMessage(t *testing.T) {
	t.Parallel()

	allow := NewAllowList([]string{Wildcard}, nil)
	mock := NewMockChannel("messenger", allow)

	msg := message.InboundMessage{Sender: message.Sender{ID: "u1"}}
	if err := mock.SimulateMessage(msg); !errors.Is(err, ErrNoInbox) {
		t.Errorf("error before SetInbox = %v, want ErrNoInbox", err)
	}

	var got message.InboundMessage
	mock.SetInbox(func(m message.InboundMessage) error {
		got = m
		return nil
	})
	if err := mock.SimulateMessage(msg); err != nil {
		t.Fatalf("SimulateMessage: %v", err)
	}
	if got.Channel != "messenger" {
		t.Errorf("inbound Channel = %q, want tagged with channel name", got.Channel)
	}
}

func TestMockSimulateMessageDenied(t *testing.T) {
	t.Parallel()

	mock := NewMockChannel("messenger", nil)
	mock.SetInbox(func(message.InboundMessage) error { return nil })

	err := mock.SimulateMessage(message.InboundMessage{Sender: message.Sender{ID: "u1"}})
	if !errors.Is(err, ErrDenied) {
		t.Errorf("error = %v, want ErrDenied with nil allow-list", err)
	}
}
