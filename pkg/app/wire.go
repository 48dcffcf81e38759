package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/metoushela/megan/internal/channel"
	"github.com/metoushela/megan/internal/clock"
	"github.com/metoushela/megan/internal/config"
	"github.com/metoushela/megan/internal/continuation"
	"github.com/metoushela/megan/internal/core"
	"github.com/metoushela/megan/internal/cron"
	"github.com/metoushela/megan/internal/gateway"
	"github.com/metoushela/megan/internal/history"
	"github.com/metoushela/megan/internal/metrics"
	"github.com/metoushela/megan/internal/provider"
	"github.com/metoushela/megan/internal/router"
	"github.com/metoushela/megan/internal/session"
	"github.com/metoushela/megan/internal/tictactoe"
	"github.com/metoushela/megan/modules/history/sqlite"
)

// routerModule wraps a *router.Router to satisfy core.Module, core.Starter,
// and core.Stopper, so the router participates in the App lifecycle.
type routerModule struct {
	router *router.Router
	ctx    context.Context
}

func (m *routerModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{ID: "router"}
}

func (m *routerModule) Start() error {
	m.router.Start(m.ctx)
	return nil
}

func (m *routerModule) Stop(ctx context.Context) error {
	m.router.Stop(ctx)
	return nil
}

// gatewayModule adapts the HTTP gateway to the App lifecycle.
type gatewayModule struct {
	server *gateway.Server
}

func (m *gatewayModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{ID: "gateway"}
}

func (m *gatewayModule) Start() error { return m.server.Start() }

func (m *gatewayModule) Stop(ctx context.Context) error { return m.server.Stop(ctx) }

// cronModule adapts the maintenance scheduler to the App lifecycle.
type cronModule struct {
	scheduler *cron.Scheduler
}

func (m *cronModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{ID: "cron"}
}

func (m *cronModule) Start() error { return m.scheduler.Start() }

func (m *cronModule) Stop(ctx context.Context) error { return m.scheduler.Stop(ctx) }

// storeModule holds the transcript backend's closer so the database is
// closed after everything that writes to it has stopped.
type storeModule struct {
	closer io.Closer
}

func (m *storeModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{ID: "history"}
}

func (m *storeModule) Stop(context.Context) error { return m.closer.Close() }

// wire builds the message path: transcript store, continuation tracker,
// provider chain, pipeline, and router, then connects every loaded channel
// to the router's inbox and appends the runtime components to the app
// lifecycle. Must be called after LoadModules and before Start.
func wire(
	app *core.App,
	appCtx *core.AppContext,
	cfg *config.Config,
	ids []string,
	logger *slog.Logger,
) error {
	store, closer, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	tracker := buildTracker(cfg)

	// Provider modules publish their capabilities as services during
	// provisioning; the chain needs one generator and one fallback answerer.
	generator, _ := lookupService[provider.Generator](appCtx, "provider.generator")
	if generator == nil {
		return fmt.Errorf("wire: no generator provider registered")
	}
	answerer, _ := lookupService[provider.Answerer](appCtx, "provider.answerer")
	if answerer == nil {
		return fmt.Errorf("wire: no fallback answerer registered")
	}
	uploader, _ := lookupService[provider.Uploader](appCtx, "provider.uploader")

	composerOpts := []session.ComposerOption{session.WithLogger(logger)}
	if uploader != nil {
		composerOpts = append(composerOpts, session.WithUploader(uploader))
	}
	composer := session.NewComposer(composerOpts...)

	chain := provider.NewChain(generator, answerer, store, provider.WithLogger(logger))

	// Discover channels from loaded modules and register them under their
	// full module ID, which is what channels set as msg.Channel on inbound
	// messages.
	dispatcher := channel.NewDispatcher()
	var channels []channel.Channel
	for _, id := range ids {
		mod, ok := app.Module(id)
		if !ok {
			continue
		}
		ch, ok := mod.(channel.Channel)
		if !ok {
			continue
		}
		if err := dispatcher.Register(id, ch); err != nil {
			return fmt.Errorf("wire: registering channel %s: %w", id, err)
		}
		channels = append(channels, ch)
		logger.Info("wire: registered channel", "channel", id)
	}

	var guard router.Guard
	var lanes *router.LaneLock
	if cfg.Router.Serialize {
		sg := router.NewSerialGuard()
		guard = sg
		lanes = sg.Lanes()
	} else {
		guard = router.NewRequestGuard()
	}

	pipeline, err := router.NewPipeline(router.PipelineConfig{
		Store:         store,
		Composer:      composer,
		Chain:         chain,
		Continuations: tracker,
		Sender:        dispatcher,
		Reactor:       dispatcher,
		Guard:         guard,
		Triggers:      router.NewTriggerPolicy(cfg.Router.TriggerPrefixes, cfg.Router.ClearCommands),
		Admins:        router.NewAdminPolicy(cfg.Router.Admins),
		Clock:         clock.New(),
		Games:         tictactoe.NewManager(),
		Metrics:       m,
		Logger:        logger,
		ReplyHeader:   cfg.Router.ReplyHeader,
	})
	if err != nil {
		return fmt.Errorf("wire: creating pipeline: %w", err)
	}

	r, err := router.NewRouter(router.Config{
		WorkerCount: cfg.Router.Workers,
		InboxSize:   cfg.Router.InboxSize,
		Pipeline:    pipeline,
		Metrics:     m,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("wire: creating router: %w", err)
	}

	// Wire each channel's inbox to the router.
	for _, ch := range channels {
		ch.SetInbox(r.Submit)
	}

	// Shutdown runs in reverse append order: the store closes last, after
	// the router has drained.
	if closer != nil {
		app.AppendModule(&storeModule{closer: closer})
	}
	app.AppendModule(&routerModule{router: r, ctx: context.Background()})

	if cfg.Gateway.Enabled {
		srv := gateway.NewServer(gateway.Config{
			Addr:          cfg.Gateway.Addr,
			AdminToken:    cfg.Gateway.AdminToken,
			Store:         store,
			Continuations: tracker,
			Metrics:       m.Handler(),
			Logger:        logger,
		})
		for _, id := range ids {
			mod, ok := app.Module(id)
			if !ok {
				continue
			}
			if h, ok := mod.(gateway.WebhookHandler); ok {
				srv.Dispatcher().Register(sourceName(id), h, cfg.Gateway.WebhookSecret)
				logger.Info("wire: registered webhook source", "source", sourceName(id))
			}
		}
		app.AppendModule(&gatewayModule{server: srv})
	}

	if cfg.Cron.Enabled {
		sched := cron.NewScheduler(logger)
		if cfg.Cron.ContinuationSweep != "" {
			job := &cron.ContinuationSweepJob{
				Tracker:      tracker,
				Logger:       logger,
				ScheduleExpr: cfg.Cron.ContinuationSweep,
			}
			if err := sched.RegisterJob(job); err != nil {
				return fmt.Errorf("wire: %w", err)
			}
		}
		if cfg.Cron.LaneCleanup != "" && lanes != nil {
			job := &cron.LaneCleanupJob{
				Lanes:        lanes,
				Logger:       logger,
				ScheduleExpr: cfg.Cron.LaneCleanup,
			}
			if err := sched.RegisterJob(job); err != nil {
				return fmt.Errorf("wire: %w", err)
			}
		}
		app.AppendModule(&cronModule{scheduler: sched})
	}

	logger.Info("wire: message path ready",
		"channels", len(channels),
		"backend", cfg.History.Backend,
		"serialize", cfg.Router.Serialize)
	return nil
}

// buildStore selects the transcript backend. The returned closer is non-nil
// only for backends that hold an open handle.
func buildStore(cfg *config.Config, logger *slog.Logger) (history.Store, io.Closer, error) {
	switch cfg.History.Backend {
	case config.HistoryBackendSQLite:
		path := cfg.History.Path
		if path == "" {
			path = filepath.Join(cfg.DataDir, "history.db")
		}
		st, err := sqlite.Open(path,
			sqlite.WithMaxHistory(cfg.History.MaxHistory),
			sqlite.WithLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("wire: opening history database: %w", err)
		}
		return st, st, nil
	default:
		dir := cfg.History.Dir
		if dir == "" {
			dir = filepath.Join(cfg.DataDir, "uids")
		}
		st := history.NewFileStore(dir,
			history.WithMaxHistory(cfg.History.MaxHistory),
			history.WithLogger(logger))
		return st, nil, nil
	}
}

// buildTracker creates the continuation tracker with the configured
// eviction mode.
func buildTracker(cfg *config.Config) *continuation.Tracker {
	switch cfg.Continuation.Eviction {
	case config.EvictionTTL:
		return continuation.New(continuation.WithTTL(cfg.Continuation.TTL))
	case config.EvictionLRU:
		return continuation.New(continuation.WithMaxEntries(cfg.Continuation.MaxEntries))
	default:
		return continuation.New()
	}
}

// lookupService fetches a typed service from the registry.
func lookupService[T any](appCtx *core.AppContext, name string) (T, bool) {
	var zero T
	svc, ok := appCtx.Service(name)
	if !ok {
		return zero, false
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// sourceName strips the namespace from a module ID for use as a webhook
// path segment ("channel.messenger" → "messenger").
func sourceName(id string) string {
	if i := strings.IndexByte(id, '.'); i >= 0 {
		return id[i+1:]
	}
	return id
}
