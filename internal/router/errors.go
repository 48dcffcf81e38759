package router

import "errors"

// Sentinel errors for router operations.
var (
	// ErrRouterStopped indicates a submit after Stop.
	ErrRouterStopped = errors.New("router: stopped")

	// ErrInboxFull indicates the bounded inbox rejected a message.
	ErrInboxFull = errors.New("router: inbox full, message dropped")

	// ErrNoChain indicates the pipeline was built without a provider chain.
	ErrNoChain = errors.New("router: provider chain is required")

	// ErrNoSender indicates the pipeline was built without a response sender.
	ErrNoSender = errors.New("router: response sender is required")

	// ErrNoStore indicates the pipeline was built without a history store.
	ErrNoStore = errors.New("router: history store is required")
)
