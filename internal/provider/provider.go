// Package provider defines the Turn data model shared across the bot, the
// Generator/Answerer interfaces for the two answer-generation services, and
// the degrade-gracefully chain that orchestrates them.
package provider

import "context"

// Generator is the contextual primary provider: it receives the full ordered
// transcript and returns ranked candidates.
// Concrete implementations live in separate packages (e.g. provider.gemini)
// and typically also implement core.Module for lifecycle management.
type Generator interface {
	// Generate sends the transcript and returns ranked candidates.
	// An empty candidate list must be surfaced as ErrNoCandidates.
	Generate(ctx context.Context, req GenerateRequest) ([]Candidate, error)

	// ModelName returns the identifier of the underlying model.
	ModelName() string
}

// Answerer is the stateless fallback provider: one prompt string in, one
// answer string out, no history and no attachments.
type Answerer interface {
	AnswerPrompt(ctx context.Context, prompt string) (string, error)
}

// Uploader turns an external media URL into a provider-hosted file reference
// usable inside a Turn. Implemented by the primary provider.
type Uploader interface {
	Upload(ctx context.Context, url, mimeType string) (FileRef, error)
}
