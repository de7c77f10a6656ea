package backend

import "errors"

// Stable error taxonomy surfaced to RPC callers. Backend failures are
// mapped 1:1 onto these and never silently swallowed.
var (
	// ErrInvalidRequest marks malformed input. Raised locally, before
	// any backend call is made.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidAmount is returned by invoice creation for amounts the
	// backend cannot represent.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUnroutable means no feasible path or amount exists for a send.
	ErrUnroutable = errors.New("no route for payment")

	// ErrInsufficientFunds means the backend balance cannot cover the
	// requested send plus fees.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTimeout means the backend confirmed the operation timed out.
	ErrTimeout = errors.New("payment timed out")

	// ErrNotFound is the normal outcome of a status query for an
	// identifier the backend does not know (yet).
	ErrNotFound = errors.New("payment not found")

	// ErrBackendUnavailable marks connectivity or session failures.
	// Retryable by the caller after backoff.
	ErrBackendUnavailable = errors.New("backend unavailable")
)
