package channel

import (
	"context"
	"fmt"
	"sync"

	"github.com/metoushela/megan/pkg/message"
)

// Dispatcher routes outbound messages and reactions to the correct
// registered channel. It implements the router's sender and reactor
// dependencies so it can be injected directly into the router wiring.
type Dispatcher struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		channels: make(map[string]Channel),
	}
}

// Register adds a channel under the given name.
// Returns ErrDuplicateChannel if the name is already taken.
func (d *Dispatcher) Register(name string, ch Channel) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.channels[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateChannel, name)
	}
	d.channels[name] = ch
	return nil
}

// Get returns the channel registered under name, or false if none.
func (d *Dispatcher) Get(name string) (Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ch, ok := d.channels[name]
	return ch, ok
}

// Send dispatches an outbound message to the channel identified by
// msg.Channel and returns the platform message ID of the sent message.
// It returns ErrNoChannel if no channel is registered under that name.
func (d *Dispatcher) Send(ctx context.Context, msg message.OutboundMessage) (string, error) {
	ch, ok := d.Get(msg.Channel)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoChannel, msg.Channel)
	}
	return ch.Send(ctx, msg)
}

// React dispatches an emoji reaction to the named channel.
func (d *Dispatcher) React(ctx context.Context, channelName string, r message.Reaction) error {
	ch, ok := d.Get(channelName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoChannel, channelName)
	}
	return ch.React(ctx, r)
}

// Channels returns the names of all registered channels.
func (d *Dispatcher) Channels() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.channels))
	for name := range d.channels {
		names = append(names, name)
	}
	return names
}
