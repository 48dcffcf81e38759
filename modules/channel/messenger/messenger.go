// Package messenger implements the chat-platform channel. Inbound events
// arrive over a websocket stream or signed webhooks; outbound messages and
// reactions go through the platform's HTTP API.
package messenger

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/metoushela/megan/internal/channel"
	"github.com/metoushela/megan/internal/core"
	"github.com/metoushela/megan/pkg/message"
	"gopkg.in/yaml.v3"
)

// moduleID tags inbound messages with their source channel.
const moduleID = "channel.messenger"

func init() {
	core.RegisterModule(&Module{})
}

// Module is the messenger channel.
type Module struct {
	config Config
	client *http.Client
	logger *slog.Logger
	allow  *channel.AllowList

	mu     sync.Mutex
	inbox  func(msg message.InboundMessage) error
	cancel context.CancelFunc
	done   chan struct{}
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  moduleID,
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return err
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger
	m.client = &http.Client{Timeout: m.config.Timeout}
	m.allow = channel.NewAllowList(m.config.AllowedUsers, m.config.AllowedGroups)

	ctx.RegisterService(moduleID, m)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	return m.config.validate()
}

// SetInbox implements channel.Channel.
func (m *Module) SetInbox(fn func(msg message.InboundMessage) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox = fn
}

// Start implements core.Starter. In websocket mode it launches the event
// stream reader; in webhook mode inbound delivery happens through
// HandleWebhook and there is nothing to start.
func (m *Module) Start() error {
	if m.config.Mode != ModeWebSocket {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.cancel = cancel
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.runStream(ctx)
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send implements channel.Channel.
func (m *Module) Send(ctx context.Context, msg message.OutboundMessage) (string, error) {
	return m.send(ctx, msg)
}

// React implements channel.Channel.
func (m *Module) React(ctx context.Context, r message.Reaction) error {
	return m.react(ctx, r)
}

// deliver pushes one converted event to the router, applying the self-echo
// filter and the allow-list.
func (m *Module) deliver(in message.InboundMessage) {
	if m.config.SelfID != "" && in.Sender.ID == m.config.SelfID {
		return
	}
	if !m.allow.IsAllowed(in) {
		m.logger.Debug("message denied by allow-list",
			"sender", in.Sender.ID, "chat", in.Chat.ID)
		return
	}

	m.mu.Lock()
	inbox := m.inbox
	m.mu.Unlock()

	if inbox == nil {
		m.logger.Warn("inbound message dropped, no inbox wired", "id", in.ID)
		return
	}
	if err := inbox(in); err != nil {
		m.logger.Warn("inbox rejected message", "id", in.ID, "error", err)
	}
}

// Compile-time interface assertions.
var (
	_ core.Module       = (*Module)(nil)
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
	_ channel.Channel   = (*Module)(nil)
)
