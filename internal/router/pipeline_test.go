package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/metoushela/megan/internal/clock"
	"github.com/metoushela/megan/internal/continuation"
	"github.com/metoushela/megan/internal/history"
	"github.com/metoushela/megan/internal/provider"
	"github.com/metoushela/megan/internal/session"
	"github.com/metoushela/megan/internal/tictactoe"
	"github.com/metoushela/megan/pkg/message"
)

type fakeGenerator struct {
	mu     sync.Mutex
	answer string
	err    error
	calls  int
}

func (g *fakeGenerator) Generate(_ context.Context, _ provider.GenerateRequest) ([]provider.Candidate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return []provider.Candidate{{Turn: provider.NewTextTurn(provider.RoleModel, g.answer)}}, nil
}

func (g *fakeGenerator) ModelName() string { return "fake" }

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeAnswerer struct {
	answer string
	err    error
}

func (a *fakeAnswerer) AnswerPrompt(context.Context, string) (string, error) {
	return a.answer, a.err
}

type captureSender struct {
	mu   sync.Mutex
	sent []message.OutboundMessage
	err  error
}

func (s *captureSender) Send(_ context.Context, msg message.OutboundMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return fmt.Sprintf("bot-%d", len(s.sent)), nil
}

func (s *captureSender) messages() []message.OutboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]message.OutboundMessage, len(s.sent))
	copy(cp, s.sent)
	return cp
}

type captureReactor struct {
	mu     sync.Mutex
	emojis []string
}

func (r *captureReactor) React(_ context.Context, _ string, reaction message.Reaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emojis = append(r.emojis, reaction.Emoji)
	return nil
}

func (r *captureReactor) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]string, len(r.emojis))
	copy(cp, r.emojis)
	return cp
}

type pipelineFixture struct {
	pipeline *Pipeline
	store    *history.FileStore
	sender   *captureSender
	reactor  *captureReactor
	tracker  *continuation.Tracker
	gen      *fakeGenerator
}

func newFixture(t *testing.T, gen *fakeGenerator, fallback provider.Answerer, mutate func(*PipelineConfig)) *pipelineFixture {
	t.Helper()

	store := history.NewFileStore(t.TempDir())
	sender := &captureSender{}
	reactor := &captureReactor{}
	tracker := continuation.New()

	cfg := PipelineConfig{
		Store:         store,
		Composer:      session.NewComposer(),
		Chain:         provider.NewChain(gen, fallback, store),
		Continuations: tracker,
		Sender:        sender,
		Reactor:       reactor,
		Guard:         NewRequestGuard(),
		Triggers:      NewTriggerPolicy(nil, nil),
		Admins:        NewAdminPolicy([]string{"admin-1"}),
		Games:         tictactoe.NewManager(),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	p, err := NewPipeline(cfg)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return &pipelineFixture{
		pipeline: p,
		store:    store,
		sender:   sender,
		reactor:  reactor,
		tracker:  tracker,
		gen:      gen,
	}
}

func inbound(id, senderID, body string) message.InboundMessage {
	return message.InboundMessage{
		ID:        id,
		Timestamp: time.Now(),
		Channel:   "messenger",
		Sender:    message.Sender{ID: senderID, DisplayName: "User " + senderID},
		Chat:      message.Chat{ID: "thread-1", Type: message.ChatGroup},
		Body:      body,
	}
}

func envelopeFor(msg message.InboundMessage) envelope {
	return envelope{Message: msg, Key: RequestKeyFromMessage(msg)}
}

func TestPipelineAnswersTriggeredMessage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeGenerator{answer: "Bonjour !"}, nil, nil)

	res := f.pipeline.Execute(context.Background(), envelopeFor(inbound("m1", "u1", "ai salut")))
	if !res.Handled {
		t.Fatal("triggered message not handled")
	}
	if res.Outcome != provider.OutcomePrimary {
		t.Fatalf("Outcome = %q, want primary", res.Outcome)
	}

	sent := f.sender.messages()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if !strings.HasPrefix(sent[0].Body, DefaultReplyHeader) {
		t.Errorf("reply %q lacks the decoration header", sent[0].Body)
	}
	if !strings.Contains(sent[0].Body, "Bonjour !") {
		t.Errorf("reply %q lacks the answer", sent[0].Body)
	}
	if sent[0].ReplyToID != "m1" {
		t.Errorf("ReplyToID = %q, want threaded onto the question", sent[0].ReplyToID)
	}

	if got := f.reactor.seen(); len(got) != 2 || got[0] != ReactionPending || got[1] != ReactionSuccess {
		t.Errorf("reactions = %v, want [pending success]", got)
	}

	// The exchange is persisted: preamble excluded, user + model turns only.
	turns := f.store.Load("u1")
	if len(turns) != 2 {
		t.Fatalf("persisted %d turns, want 2", len(turns))
	}
	if turns[0].Text() != "salut" || turns[1].Text() != "Bonjour !" {
		t.Errorf("persisted turns = %v", turns)
	}
}

func TestPipelineIgnoresUntriggeredMessage(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{answer: "x"}
	f := newFixture(t, gen, nil, nil)

	res := f.pipeline.Execute(context.Background(), envelopeFor(inbound("m1", "u1", "bonjour tout le monde")))
	if res.Handled {
		t.Error("untriggered message handled")
	}
	if gen.callCount() != 0 {
		t.Errorf("generator called %d times, want 0", gen.callCount())
	}
	if len(f.sender.messages()) != 0 {
		t.Error("reply sent for untriggered message")
	}
}

func TestPipelineContinuationRouting(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeGenerator{answer: "première réponse"}, nil, nil)

	// First triggered turn registers a continuation under the bot's reply ID.
	f.pipeline.Execute(context.Background(), envelopeFor(inbound("m1", "u1", "ai question")))

	reply := inbound("m2", "u1", "et ensuite ?")
	reply.ReplyTo = &message.ReplyRef{MessageID: "bot-1", SenderID: "bot"}
	res := f.pipeline.Execute(context.Background(), envelopeFor(reply))
	if !res.Handled {
		t.Fatal("owner's reply not routed into the session")
	}
	if f.gen.callCount() != 2 {
		t.Errorf("generator called %d times, want 2", f.gen.callCount())
	}

	// A foreign sender replying to the same bot message is ignored.
	foreign := inbound("m3", "u2", "moi aussi")
	foreign.ReplyTo = &message.ReplyRef{MessageID: "bot-1", SenderID: "bot"}
	res = f.pipeline.Execute(context.Background(), envelopeFor(foreign))
	if res.Handled {
		t.Error("foreign sender's reply was handled")
	}
	if f.gen.callCount() != 2 {
		t.Errorf("generator called %d times after foreign reply, want still 2", f.gen.callCount())
	}
}

func TestPipelineEmptyContinuationReplySkipped(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeGenerator{answer: "réponse"}, nil, nil)
	f.pipeline.Execute(context.Background(), envelopeFor(inbound("m1", "u1", "ai question")))

	reply := inbound("m2", "u1", "   ")
	reply.ReplyTo = &message.ReplyRef{MessageID: "bot-1", SenderID: "bot"}
	if res := f.pipeline.Execute(context.Background(), envelopeFor(reply)); res.Handled {
		t.Error("blank continuation reply was handled")
	}
	if f.gen.callCount() != 1 {
		t.Errorf("generator called %d times, want 1", f.gen.callCount())
	}
}

func TestPipelineFallbackNotPersisted(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: errors.New("upstream down")}
	f := newFixture(t, gen, &fakeAnswerer{answer: "réponse de secours"}, nil)

	res := f.pipeline.Execute(context.Background(), envelopeFor(inbound("m1", "u1", "ai question")))
	if res.Outcome != provider.OutcomeFallback {
		t.Fatalf("Outcome = %q, want fallback", res.Outcome)
	}

	if got := f.reactor.seen(); len(got) != 2 || got[1] != ReactionDegraded {
		t.Errorf("reactions = %v, want degraded indicator", got)
	}
	if turns := f.store.Load("u1"); len(turns) != 0 {
		t.Errorf("fallback persisted %d turns, want 0", len(turns))
	}

	// Degraded answers still accept follow-up replies.
	reply := inbound("m2", "u1", "encore")
	reply.ReplyTo = &message.ReplyRef{MessageID: "bot-1", SenderID: "bot"}
	gen.mu.Lock()
	gen.err = nil
	gen.answer = "revenu"
	gen.mu.Unlock()
	if res := f.pipeline.Execute(context.Background(), envelopeFor(reply)); !res.Handled {
		t.Error("reply to degraded answer not routed")
	}
}

func TestPipelineBothProvidersFail(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeGenerator{err: errors.New("down")}, &fakeAnswerer{err: errors.New("down too")}, nil)

	res := f.pipeline.Execute(context.Background(), envelopeFor(inbound("m1", "u1", "ai question")))
	if res.Outcome != provider.OutcomeFailed {
		t.Fatalf("Outcome = %q, want failed", res.Outcome)
	}
	if got := f.reactor.seen(); len(got) != 2 || got[1] != ReactionFailed {
		t.Errorf("reactions = %v, want failed indicator", got)
	}
	if sent := f.sender.messages(); len(sent) != 1 || !strings.Contains(sent[0].Body, "Désolé") {
		t.Errorf("apology not delivered: %+v", sent)
	}
	// No continuation on critical failure.
	if f.tracker.Len() != 0 {
		t.Errorf("tracker has %d entries after failed turn, want 0", f.tracker.Len())
	}
}

func TestPipelineClearCommand(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeGenerator{answer: "x"}, nil, nil)
	if err := f.store.Save("u1", []provider.Turn{provider.NewTextTurn(provider.RoleUser, "hi")}); err != nil {
		t.Fatal(err)
	}

	// Non-admin is refused; histories survive.
	f.pipeline.Execute(context.Background(), envelopeFor(inbound("m1", "u1", "ai clean all")))
	if turns := f.store.Load("u1"); len(turns) != 1 {
		t.Fatal("non-admin clear wiped histories")
	}
	if sent := f.sender.messages(); len(sent) != 1 || !strings.Contains(sent[0].Body, "⛔") {
		t.Errorf("refusal not sent: %+v", sent)
	}

	// Admin wipes everything.
	res := f.pipeline.Execute(context.Background(), envelopeFor(inbound("m2", "admin-1", "edu effacer historique")))
	if !res.Handled {
		t.Fatal("admin clear not handled")
	}
	if turns := f.store.Load("u1"); len(turns) != 0 {
		t.Error("histories survived admin clear")
	}
	if sent := f.sender.messages(); !strings.Contains(sent[len(sent)-1].Body, "✅") {
		t.Errorf("confirmation not sent: %q", sent[len(sent)-1].Body)
	}
	if f.gen.callCount() != 0 {
		t.Error("clear command reached the provider")
	}
}

func TestPipelineTimeQuestionShortCircuits(t *testing.T) {
	t.Parallel()

	fixedNow := func() time.Time {
		return time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)
	}
	f := newFixture(t, &fakeGenerator{answer: "x"}, nil, func(cfg *PipelineConfig) {
		cfg.Clock = clock.New(clock.WithNow(fixedNow))
	})

	res := f.pipeline.Execute(context.Background(), envelopeFor(inbound("m1", "u1", "ai quelle heure est-il ?")))
	if !res.Handled {
		t.Fatal("time question not handled")
	}
	if f.gen.callCount() != 0 {
		t.Error("time question reached the provider")
	}
	if sent := f.sender.messages(); len(sent) != 1 || !strings.Contains(sent[0].Body, "🕒") {
		t.Errorf("time answer not sent: %+v", sent)
	}
}

func TestPipelineGuardRefusesDuplicate(t *testing.T) {
	t.Parallel()

	guard := NewRequestGuard()
	f := newFixture(t, &fakeGenerator{answer: "x"}, nil, func(cfg *PipelineConfig) {
		cfg.Guard = guard
	})

	msg := inbound("m1", "u1", "ai question")
	env := envelopeFor(msg)

	// Simulate the same event already being processed.
	if !guard.Admit(env.Key) {
		t.Fatal("initial admit failed")
	}
	if res := f.pipeline.Execute(context.Background(), env); res.Handled {
		t.Error("duplicate delivery was handled")
	}
	guard.Release(env.Key)

	if res := f.pipeline.Execute(context.Background(), env); !res.Handled {
		t.Error("message refused after release")
	}
}

func TestPipelineGameFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeGenerator{answer: "x"}, nil, nil)

	start := inbound("m1", "1", "tictactoe 2")
	res := f.pipeline.Execute(context.Background(), envelopeFor(start))
	if !res.Handled {
		t.Fatal("game start not handled")
	}
	if sent := f.sender.messages(); !strings.Contains(sent[0].Body, "Tic-Tac-Toe") {
		t.Errorf("intro = %q", sent[0].Body)
	}

	// A move is plain chatter routed to the game, not to the provider.
	move := inbound("m2", "1", "5")
	if res := f.pipeline.Execute(context.Background(), envelopeFor(move)); !res.Handled {
		t.Fatal("move not handled")
	}
	if f.gen.callCount() != 0 {
		t.Error("game move reached the provider")
	}
}

func TestPipelineGameStartValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeGenerator{answer: "x"}, nil, nil)

	f.pipeline.Execute(context.Background(), envelopeFor(inbound("m1", "1", "ttt abc")))
	if sent := f.sender.messages(); len(sent) != 1 || !strings.Contains(sent[0].Body, "ID invalide") {
		t.Errorf("invalid-ID reply = %+v", sent)
	}

	f.pipeline.Execute(context.Background(), envelopeFor(inbound("m2", "1", "ttt")))
	if sent := f.sender.messages(); !strings.Contains(sent[len(sent)-1].Body, "Mentionnez un ami") {
		t.Errorf("missing-opponent reply = %q", sent[len(sent)-1].Body)
	}
}
