package router

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/metoushela/megan/internal/clock"
	"github.com/metoushela/megan/internal/continuation"
	"github.com/metoushela/megan/internal/history"
	"github.com/metoushela/megan/internal/metrics"
	"github.com/metoushela/megan/internal/provider"
	"github.com/metoushela/megan/internal/session"
	"github.com/metoushela/megan/internal/tictactoe"
	"github.com/metoushela/megan/pkg/message"
)

// Progress reactions set on the message being handled.
const (
	ReactionPending  = "🌀"
	ReactionSuccess  = "🤠"
	ReactionDegraded = "⚠"
	ReactionFailed   = "❌"
)

// Admin replies for the clear-all command.
const (
	clearSuccessText = "✅ Mémoire effacée avec succès !"
	clearFailureText = "❌ Échec de la suppression de la mémoire"
	clearDeniedText  = "⛔ Cette commande est réservée aux administrateurs."
)

// continuationCommand names the handler continuation entries route back to.
const continuationCommand = "ai"

// ResponseSender delivers outbound messages and reports the platform
// message ID of what was sent. Implemented by channel.Dispatcher.
type ResponseSender interface {
	Send(ctx context.Context, msg message.OutboundMessage) (string, error)
}

// Reactor sets emoji reactions on platform messages. Implemented by
// channel.Dispatcher.
type Reactor interface {
	React(ctx context.Context, channelName string, r message.Reaction) error
}

// PipelineConfig groups the dependencies of the turn pipeline.
type PipelineConfig struct {
	Store         history.Store
	Composer      *session.Composer
	Chain         *provider.Chain
	Continuations *continuation.Tracker
	Sender        ResponseSender
	Reactor       Reactor
	Guard         Guard
	Triggers      TriggerPolicy
	Admins        AdminPolicy
	Clock         *clock.Clock
	Games         *tictactoe.Manager
	Metrics       *metrics.Metrics
	Logger        *slog.Logger

	// ReplyHeader is the banner prepended to outgoing assistant messages.
	ReplyHeader string
}

// Result reports what the pipeline did with one message.
type Result struct {
	// Handled is false when the message was not addressed to the bot.
	Handled bool
	// Outcome is set for assistant turns.
	Outcome provider.Outcome
	// Err carries the delivery error, if any. Provider failures are not
	// errors here: they surface as OutcomeFallback/OutcomeFailed.
	Err error
}

// Pipeline routes one inbound message through classification, admission,
// the provider chain, delivery, and continuation registration.
type Pipeline struct {
	cfg PipelineConfig
}

// NewPipeline validates required dependencies and builds a Pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Chain == nil {
		return nil, ErrNoChain
	}
	if cfg.Sender == nil {
		return nil, ErrNoSender
	}
	if cfg.Store == nil {
		return nil, ErrNoStore
	}
	if cfg.Composer == nil {
		cfg.Composer = session.NewComposer()
	}
	if cfg.Continuations == nil {
		cfg.Continuations = continuation.New()
	}
	if cfg.Guard == nil {
		cfg.Guard = NewRequestGuard()
	}
	if len(cfg.Triggers.prefixes) == 0 {
		cfg.Triggers = NewTriggerPolicy(nil, nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ReplyHeader == "" {
		cfg.ReplyHeader = DefaultReplyHeader
	}
	return &Pipeline{cfg: cfg}, nil
}

// Execute processes one inbound message.
func (p *Pipeline) Execute(ctx context.Context, env envelope) Result {
	msg := env.Message

	// Reply continuation: a reply to one of the bot's answers continues the
	// sender's session without a trigger word.
	if msg.IsReply() {
		if _, ok := p.cfg.Continuations.Resolve(msg.ReplyTo.MessageID, msg.Sender.ID); ok {
			prompt := strings.TrimSpace(msg.Body)
			if prompt == "" {
				return Result{}
			}
			p.cfg.Metrics.RecordContinuationResolved()
			return p.answer(ctx, env, prompt)
		}
		if p.cfg.Continuations.Registered(msg.ReplyTo.MessageID) {
			// Someone replied to an answer that belongs to another user's
			// session. The event falls through untouched.
			p.cfg.Metrics.RecordContinuationRejected()
			return Result{}
		}
	}

	// Game commands run ahead of the assistant triggers.
	if args, ok := MatchGameStart(msg.Body); ok && p.cfg.Games != nil {
		return p.startGame(ctx, msg, args)
	}

	prompt, ok := p.cfg.Triggers.Match(msg.Body)
	if !ok {
		// Untriggered chatter may still be a move in a running game.
		if p.cfg.Games != nil {
			if reply, handled := p.cfg.Games.React(msg.Chat.ID, msg.Sender.ID, msg.Body); handled {
				if reply != "" {
					return p.send(ctx, msg, reply)
				}
				return Result{Handled: true}
			}
		}
		return Result{}
	}

	if p.cfg.Triggers.IsClearCommand(prompt) {
		return p.clearAll(ctx, msg)
	}

	if p.cfg.Clock != nil {
		if ans, ok := p.cfg.Clock.Answer(prompt); ok {
			return p.send(ctx, msg, Decorate(p.cfg.ReplyHeader, ans))
		}
	}

	return p.answer(ctx, env, prompt)
}

// answer runs the assistant turn: admission, progress reaction, compose,
// provider chain, delivery, continuation registration, outcome reaction.
func (p *Pipeline) answer(ctx context.Context, env envelope, prompt string) Result {
	msg := env.Message
	logger := p.cfg.Logger

	if !p.cfg.Guard.Admit(env.Key) {
		logger.Debug("pipeline: duplicate request refused",
			"thread_id", env.Key.Session.ThreadID,
			"sender_id", env.Key.Session.SenderID,
		)
		p.cfg.Metrics.RecordGuardRejected()
		return Result{}
	}
	defer p.cfg.Guard.Release(env.Key)

	p.react(ctx, msg, ReactionPending)

	uid := msg.Sender.ID
	stored := p.cfg.Store.Load(uid)
	composed, userTurn := p.cfg.Composer.Compose(ctx, stored, prompt, msg.MediaAttachments())

	res := p.cfg.Chain.Answer(ctx, provider.Request{
		UID:      uid,
		History:  stored,
		Composed: composed,
		UserTurn: userTurn,
		Prompt:   prompt,
	})
	p.cfg.Metrics.RecordTurn(string(res.Outcome))

	switch res.Outcome {
	case provider.OutcomePrimary:
		p.react(ctx, msg, ReactionSuccess)
	case provider.OutcomeFallback:
		p.react(ctx, msg, ReactionDegraded)
	case provider.OutcomeFailed:
		p.react(ctx, msg, ReactionFailed)
	}

	sentID, err := p.cfg.Sender.Send(ctx, message.NewReply(msg, Decorate(p.cfg.ReplyHeader, res.Text)))
	if err != nil {
		logger.Error("pipeline: failed to send answer", "uid", uid, "error", err)
		return Result{Handled: true, Outcome: res.Outcome, Err: err}
	}

	// Every delivered answer, degraded included, accepts reply follow-ups.
	if res.Outcome != provider.OutcomeFailed {
		p.cfg.Continuations.Register(sentID, continuation.Entry{
			OwnerID:  uid,
			ThreadID: msg.Chat.ID,
			Command:  continuationCommand,
		})
	}
	return Result{Handled: true, Outcome: res.Outcome}
}

// clearAll handles the admin wipe command.
func (p *Pipeline) clearAll(ctx context.Context, msg message.InboundMessage) Result {
	if !p.cfg.Admins.IsAdmin(msg.Sender.ID) {
		p.cfg.Logger.Warn("pipeline: clear-all refused", "sender_id", msg.Sender.ID)
		return p.send(ctx, msg, Decorate(p.cfg.ReplyHeader, clearDeniedText))
	}

	text := clearSuccessText
	if err := p.cfg.Store.ClearAll(); err != nil {
		p.cfg.Logger.Error("pipeline: clear-all failed", "error", err)
		text = clearFailureText
	} else {
		p.cfg.Metrics.RecordHistoriesCleared()
	}
	return p.send(ctx, msg, Decorate(p.cfg.ReplyHeader, text))
}

// startGame handles the tic-tac-toe start command. The opponent comes from
// the first mention, or from a numeric ID argument.
func (p *Pipeline) startGame(ctx context.Context, msg message.InboundMessage, args string) Result {
	var opponentID string
	if !msg.Mentions.IsEmpty() && len(msg.Mentions.IDs) > 0 {
		opponentID = msg.Mentions.IDs[0]
	} else if args != "" {
		arg := strings.Fields(args)[0]
		if !tictactoe.ValidOpponentID(arg) {
			return p.send(ctx, msg, "ID invalide. Merci de fournir un ID numérique.")
		}
		opponentID = arg
	}
	if opponentID == "" {
		return p.send(ctx, msg, "Mentionnez un ami ou donnez son ID pour commencer un jeu de Tic-Tac-Toe !")
	}

	initiator := tictactoe.Player{ID: msg.Sender.ID, Name: playerName(msg.Sender)}
	opponent := tictactoe.Player{ID: opponentID, Name: opponentID}

	intro, err := p.cfg.Games.Start(msg.Chat.ID, initiator, opponent)
	switch {
	case errors.Is(err, tictactoe.ErrSelfPlay):
		return p.send(ctx, msg, "Vous ne pouvez pas jouer contre vous-même !")
	case errors.Is(err, tictactoe.ErrGameInProgress):
		return p.send(ctx, msg, "Un jeu est déjà en cours entre ces joueurs.")
	case err != nil:
		return Result{Handled: true, Err: err}
	}
	return p.send(ctx, msg, intro)
}

// send replies to msg with body and reports delivery in the Result.
func (p *Pipeline) send(ctx context.Context, msg message.InboundMessage, body string) Result {
	if _, err := p.cfg.Sender.Send(ctx, message.NewReply(msg, body)); err != nil {
		p.cfg.Logger.Error("pipeline: failed to send reply", "error", err)
		return Result{Handled: true, Err: err}
	}
	return Result{Handled: true}
}

// react sets a progress reaction on the message being handled. Reaction
// failures only cost the indicator.
func (p *Pipeline) react(ctx context.Context, msg message.InboundMessage, emoji string) {
	if p.cfg.Reactor == nil {
		return
	}
	r := message.Reaction{Emoji: emoji, TargetID: msg.ID}
	if err := p.cfg.Reactor.React(ctx, msg.Channel, r); err != nil {
		p.cfg.Logger.Debug("pipeline: reaction failed", "emoji", emoji, "error", err)
	}
}

func playerName(s message.Sender) string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.ID
}
