// Package session composes the transcript sent to the primary provider for
// one user turn: persona seeding for first contact, stored history replay,
// and best-effort media upload for the new turn.
package session

import (
	"context"
	"log/slog"

	"github.com/metoushela/megan/internal/provider"
	"github.com/metoushela/megan/pkg/message"
)

// Persona preamble injected when a user has no stored history. It is part of
// the composed request only and is never written to the history store.
const (
	preambleUserText = "Tu es Megan Education, un assistant IA francophone. " +
		"Réponds toujours en français sauf si l'utilisateur pose une question dans une autre langue. " +
		"Sois concis, précis et utile."
	preambleModelText = "D'accord, je suis prêt. Je répondrai en français par défaut."
)

// Preamble returns a fresh copy of the persona-priming turn pair.
func Preamble() []provider.Turn {
	return []provider.Turn{
		provider.NewTextTurn(provider.RoleUser, preambleUserText),
		provider.NewTextTurn(provider.RoleModel, preambleModelText),
	}
}

// Composer assembles the full provider request for one turn.
type Composer struct {
	uploader provider.Uploader
	logger   *slog.Logger
}

// ComposerOption configures optional Composer behavior.
type ComposerOption func(*Composer)

// WithUploader enables attachment harvesting through the given uploader.
// Without one, attachments are ignored and turns are text only.
func WithUploader(u provider.Uploader) ComposerOption {
	return func(c *Composer) { c.uploader = u }
}

// WithLogger injects a structured logger for upload diagnostics.
func WithLogger(l *slog.Logger) ComposerOption {
	return func(c *Composer) { c.logger = l }
}

// NewComposer builds a Composer.
func NewComposer(opts ...ComposerOption) *Composer {
	c := &Composer{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Compose builds the transcript for one user turn. history is the stored
// sequence for this user; when it is empty the persona preamble opens the
// composed transcript instead. The returned userTurn is what the caller
// should persist alongside the model answer, so it carries the uploaded
// file references but never the preamble.
func (c *Composer) Compose(ctx context.Context, history []provider.Turn, text string, attachments []message.Attachment) (composed []provider.Turn, userTurn provider.Turn) {
	userTurn = provider.NewUserTurn(text, c.upload(ctx, attachments))

	if len(history) == 0 {
		composed = append(Preamble(), userTurn)
		return composed, userTurn
	}
	composed = make([]provider.Turn, 0, len(history)+1)
	composed = append(composed, history...)
	composed = append(composed, userTurn)
	return composed, userTurn
}

// upload converts media attachments into provider file references. Each
// upload is best effort: a failure drops that attachment and the turn
// proceeds with whatever uploaded cleanly.
func (c *Composer) upload(ctx context.Context, attachments []message.Attachment) []provider.FileRef {
	if c.uploader == nil || len(attachments) == 0 {
		return nil
	}
	var refs []provider.FileRef
	for _, att := range message.MediaOnly(attachments) {
		ref, err := c.uploader.Upload(ctx, att.URL, att.MIMEType)
		if err != nil {
			c.logger.Warn("attachment upload failed, continuing without it",
				"url", att.URL, "error", err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}
