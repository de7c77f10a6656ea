package backend

import (
	"context"
	"time"
)

// Backend is the capability contract a settlement backend must satisfy.
// The backend owns all payment state and concurrency control for
// settlement; the bridge only observes and translates.
type Backend interface {
	// GetSettings returns the backend's static capability descriptor.
	// It does not fail after successful backend initialization.
	GetSettings(ctx context.Context) (*Settings, error)

	// CreateInvoice asks the backend for a fresh BOLT11 invoice. The
	// returned payment has StatusPending and a non-empty Identifier.
	CreateInvoice(ctx context.Context, description string, amountSats int64, expiry time.Duration) (*Payment, error)

	// Quote estimates fees and feasibility for a payment option
	// without committing anything.
	Quote(ctx context.Context, opt PaymentOption, unit Unit) (*FeeEstimate, error)

	// SendPayment executes an outgoing payment and blocks until a
	// terminal outcome or the context deadline. maxFeeSats of zero
	// means no ceiling.
	SendPayment(ctx context.Context, opt PaymentOption, unit Unit, maxFeeSats int64) (*Payment, error)

	// CheckIncoming resolves the current state of an incoming payment
	// by identifier. paymentRequest carries the request-time BOLT11
	// representation when the caller has one, since some backends
	// address payments by request rather than hash.
	CheckIncoming(ctx context.Context, identifier, paymentRequest string) (*Payment, error)

	// CheckOutgoing resolves the current state of an outgoing payment.
	CheckOutgoing(ctx context.Context, identifier string) (*Payment, error)

	// SubscribeIncoming opens the backend's incoming-payment event
	// stream. The channel is closed when the subscription dies; a
	// fresh subscription replays no history.
	SubscribeIncoming(ctx context.Context) (<-chan PaymentEvent, error)

	Close() error
}
