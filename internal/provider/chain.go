package provider

import (
	"context"
	"log/slog"
	"time"
)

// DefaultFallbackTimeout bounds one fallback attempt.
const DefaultFallbackTimeout = 10 * time.Second

// DefaultApology is sent when both providers fail for a turn.
const DefaultApology = "Désolé, je n'arrive pas à traiter ta demande pour le moment 💔"

// Persister is the slice of the history store the chain needs: persisting
// the completed exchange after a primary success. Satisfied by
// history.FileStore and the SQLite backend.
type Persister interface {
	Save(uid string, turns []Turn) error
}

// Request carries everything the chain needs to answer one user turn.
type Request struct {
	// UID is the stable user identifier the transcript is keyed by.
	UID string

	// History is the persisted transcript loaded before this turn, oldest
	// first. It does not include UserTurn.
	History []Turn

	// Composed is the full transcript sent to the primary provider: any
	// session preamble, then History, then UserTurn.
	Composed []Turn

	// UserTurn is the caller's new turn, persisted together with the model
	// answer on primary success.
	UserTurn Turn

	// Prompt is the plain question text handed to the stateless fallback.
	Prompt string
}

// Chain answers a turn by trying the contextual primary provider first and
// degrading to the stateless fallback when the primary fails recoverably.
// Primary answers are persisted; fallback answers never are, so a degraded
// exchange leaves the stored transcript untouched.
type Chain struct {
	primary  Generator
	fallback Answerer
	store    Persister

	genCfg          GenerationConfig
	safety          []SafetySetting
	fallbackTimeout time.Duration
	apology         string
	logger          *slog.Logger
}

// ChainOption configures optional Chain behavior.
type ChainOption func(*Chain)

// WithLogger injects a structured logger. Without it the chain is silent.
func WithLogger(l *slog.Logger) ChainOption {
	return func(c *Chain) { c.logger = l }
}

// WithFallbackTimeout overrides the per-attempt fallback deadline.
// Non-positive values keep the default.
func WithFallbackTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		if d > 0 {
			c.fallbackTimeout = d
		}
	}
}

// WithGenerationConfig overrides the primary provider's sampling parameters.
func WithGenerationConfig(cfg GenerationConfig) ChainOption {
	return func(c *Chain) { c.genCfg = cfg }
}

// WithSafetySettings overrides the primary provider's safety thresholds.
func WithSafetySettings(s []SafetySetting) ChainOption {
	return func(c *Chain) { c.safety = s }
}

// WithApology overrides the text returned when both providers fail.
func WithApology(text string) ChainOption {
	return func(c *Chain) {
		if text != "" {
			c.apology = text
		}
	}
}

// NewChain builds a Chain. fallback and store may be nil: without a fallback
// every recoverable primary failure becomes a failed outcome, and without a
// store primary answers are not persisted.
func NewChain(primary Generator, fallback Answerer, store Persister, opts ...ChainOption) *Chain {
	c := &Chain{
		primary:         primary,
		fallback:        fallback,
		store:           store,
		genCfg:          DefaultGenerationConfig(),
		safety:          DefaultSafetySettings(),
		fallbackTimeout: DefaultFallbackTimeout,
		apology:         DefaultApology,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(nopHandler{})
	}
	return c
}

// Answer resolves one user turn through the provider chain. It always
// returns a usable Result; the Outcome field tells the caller which path
// produced the text.
func (c *Chain) Answer(ctx context.Context, req Request) Result {
	text, err := c.askPrimary(ctx, req)
	if err == nil {
		c.persist(req, text)
		return Result{Text: text, Outcome: OutcomePrimary}
	}

	if !IsRecoverable(err) {
		c.logger.Error("primary provider failed terminally",
			"uid", req.UID, "error", err)
		return Result{Text: c.apology, Outcome: OutcomeFailed}
	}

	c.logger.Warn("primary provider failed, degrading to fallback",
		"uid", req.UID, "model", c.primary.ModelName(), "error", err)

	if c.fallback != nil {
		answer, ferr := c.askFallback(ctx, req.Prompt)
		if ferr == nil {
			// Deliberately not persisted: the fallback never saw the
			// transcript, so its answer must not enter it either.
			return Result{Text: answer, Outcome: OutcomeFallback}
		}
		c.logger.Error("fallback provider failed",
			"uid", req.UID, "error", ferr)
	}

	return Result{Text: c.apology, Outcome: OutcomeFailed}
}

func (c *Chain) askPrimary(ctx context.Context, req Request) (string, error) {
	candidates, err := c.primary.Generate(ctx, GenerateRequest{
		Turns:  req.Composed,
		Config: c.genCfg,
		Safety: c.safety,
	})
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}
	text := candidates[0].Turn.Text()
	if text == "" {
		return "", ErrMalformedResponse
	}
	return text, nil
}

func (c *Chain) askFallback(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fallbackTimeout)
	defer cancel()
	return c.fallback.AnswerPrompt(ctx, prompt)
}

// persist appends the completed exchange to the stored transcript. Storage
// failure only costs durability, so it is logged and swallowed.
func (c *Chain) persist(req Request, answer string) {
	if c.store == nil {
		return
	}
	turns := make([]Turn, 0, len(req.History)+2)
	turns = append(turns, req.History...)
	turns = append(turns, req.UserTurn, NewTextTurn(RoleModel, answer))
	if err := c.store.Save(req.UID, turns); err != nil {
		c.logger.Warn("persisting exchange failed, continuing",
			"uid", req.UID, "error", err)
	}
}

// nopHandler discards all records; used when no logger is injected.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
