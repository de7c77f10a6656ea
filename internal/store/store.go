package store

import (
	"context"
	"time"
)

// PaymentRef links a request-time payment identifier (the payment hash)
// to its settlement-time representation (the BOLT11 payment request).
// The settlement backend addresses payments by request, callers address
// them by hash; these rows let status checks reconcile the two.
type PaymentRef struct {
	Identifier     string // payment hash, hex
	PaymentRequest string
	AmountSats     int64
	CreatedAt      time.Time
}

// Store defines the interface for payment-reference persistence.
type Store interface {
	SaveIncomingRef(ctx context.Context, ref *PaymentRef) error
	GetIncomingRef(ctx context.Context, identifier string) (*PaymentRef, error)
	ListIncomingRefs(ctx context.Context) ([]*PaymentRef, error)
	SaveOutgoingRef(ctx context.Context, ref *PaymentRef) error
	GetOutgoingRef(ctx context.Context, identifier string) (*PaymentRef, error)
	Close() error
}
