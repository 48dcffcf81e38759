package provider

import (
	"context"
	"errors"
)

// Sentinel errors for provider operations.
var (
	// ErrNoCandidates indicates the primary provider returned an empty
	// candidate list.
	ErrNoCandidates = errors.New("provider returned no candidates")

	// ErrMalformedResponse indicates the provider payload could not be
	// decoded into the expected shape.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrMissingAnswer indicates the fallback response lacked the answer field.
	ErrMissingAnswer = errors.New("fallback response missing answer")

	// ErrUpstreamStatus indicates a non-2xx HTTP status from a provider.
	ErrUpstreamStatus = errors.New("provider returned non-success status")

	// ErrBothFailed indicates the primary and the fallback provider both
	// failed for one turn.
	ErrBothFailed = errors.New("primary and fallback providers failed")
)

// IsRecoverable reports whether a primary-provider error should be recovered
// by the fallback path. Every primary failure — transport, empty candidates,
// malformed payload, upstream status — is recoverable; only cancellation of
// the caller's context is terminal.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
