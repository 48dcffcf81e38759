// Package channel defines the bridge between messaging platforms and the
// router. It provides the Channel interface, the outbound dispatcher, and
// allow-list filtering.
package channel

import (
	"context"

	"github.com/metoushela/megan/internal/core"
	"github.com/metoushela/megan/pkg/message"
)

// Channel is the bridge between a messaging platform and the router.
//
// A channel receives events from its platform, checks the allow-list, and
// pushes them to the router via the inbox callback. Outbound traffic flows
// the other way through Send and React.
type Channel interface {
	core.Module

	// Send delivers an outbound message and returns the platform-assigned
	// message ID of the sent message. The ID feeds the continuation tracker;
	// channels that cannot report one return "".
	Send(ctx context.Context, msg message.OutboundMessage) (string, error)

	// React sets an emoji reaction on an existing message. The router uses
	// reactions as progress indicators on the message being handled.
	React(ctx context.Context, r message.Reaction) error

	// SetInbox gives the channel a function to push inbound messages to the
	// router. The router calls this during wiring, before Start().
	SetInbox(fn func(msg message.InboundMessage) error)
}
