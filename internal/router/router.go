package router

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/metoushela/megan/internal/metrics"
	"github.com/metoushela/megan/pkg/message"
)

const defaultInboxSize = 256

// Config holds the configuration for a Router.
type Config struct {
	WorkerCount int
	InboxSize   int
	Pipeline    *Pipeline
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// withDefaults returns a copy of the config with zero values replaced by
// defaults.
func (c Config) withDefaults() Config {
	if c.WorkerCount <= 0 {
		c.WorkerCount = DefaultWorkerCount
	}
	if c.InboxSize <= 0 {
		c.InboxSize = defaultInboxSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Router is the central dispatch layer. Channels push inbound messages into
// its bounded inbox; a worker pool drains the inbox through the pipeline.
type Router struct {
	config   Config
	inbox    chan envelope
	inboxMu  sync.RWMutex
	pool     *WorkerPool
	pipeline *Pipeline
	cancel   context.CancelFunc
	stopOnce sync.Once
	logger   *slog.Logger
	stopped  atomic.Bool
}

// NewRouter creates a new Router with the given configuration.
func NewRouter(cfg Config) (*Router, error) {
	cfg = cfg.withDefaults()
	if cfg.Pipeline == nil {
		return nil, ErrNoChain
	}

	return &Router{
		config:   cfg,
		inbox:    make(chan envelope, cfg.InboxSize),
		pool:     NewWorkerPool(cfg.WorkerCount),
		pipeline: cfg.Pipeline,
		logger:   cfg.Logger,
	}, nil
}

// Start launches the worker pool and begins processing messages.
func (r *Router) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.inboxMu.Lock()
	if r.stopped.Load() {
		r.inboxMu.Unlock()
		cancel()
		r.logger.Warn("router: start ignored, router already stopped")
		return
	}
	r.cancel = cancel
	r.inboxMu.Unlock()

	r.pool.Start(ctx, r.inbox, func(ctx context.Context, env envelope) {
		r.pipeline.Execute(ctx, env)
	})
	r.logger.Info("router: started",
		"workers", r.config.WorkerCount, "inbox_size", r.config.InboxSize)
}

// Submit enqueues an inbound message for processing.
// If the inbox is full, the message is dropped with a warning log.
func (r *Router) Submit(msg message.InboundMessage) error {
	r.inboxMu.RLock()
	defer r.inboxMu.RUnlock()

	if r.stopped.Load() {
		return ErrRouterStopped
	}

	env := envelope{Message: msg, Key: RequestKeyFromMessage(msg)}

	// Non-blocking send — drop with warning if inbox is full.
	select {
	case r.inbox <- env:
		return nil
	default:
		r.logger.Warn("router: inbox full, message dropped",
			"channel", msg.Channel,
			"chat_id", msg.Chat.ID,
		)
		r.config.Metrics.RecordInboxDropped()
		return ErrInboxFull
	}
}

// Stop gracefully shuts down the router: closes inbox, drains workers,
// cancels context.
func (r *Router) Stop(_ context.Context) {
	r.stopOnce.Do(func() {
		r.logger.Info("router: stopping")

		r.inboxMu.Lock()
		r.stopped.Store(true)
		close(r.inbox)
		cancel := r.cancel
		r.inboxMu.Unlock()

		// Cancel before waiting so in-flight handlers can terminate.
		if cancel != nil {
			cancel()
		}

		r.pool.Wait()
		r.logger.Info("router: stopped")
	})
}
