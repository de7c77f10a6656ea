package backend

import "time"

// Unit identifies the currency unit a payment is denominated in.
type Unit string

const UnitSat Unit = "sat"

// Direction distinguishes payments we receive from payments we send.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Status is the lifecycle state of a payment as reported by the backend.
type Status string

const (
	StatusPending Status = "pending"
	StatusSettled Status = "settled"
	StatusFailed  Status = "failed"

	// StatusIndeterminate means the outcome of a send could not be
	// confirmed within the timeout window. It must never be treated as a
	// failure; the caller has to reconcile via a later status check.
	StatusIndeterminate Status = "indeterminate"
)

// Payment is a point-in-time view of a payment owned by the settlement
// backend. The bridge never mutates payments, it only observes them.
type Payment struct {
	ID             string // backend-assigned payment id
	Identifier     string // payment hash, hex encoded
	Direction      Direction
	AmountSats     int64
	FeeSats        int64
	Unit           Unit
	Status         Status
	Preimage       string // hex encoded settlement proof, if settled
	PaymentRequest string // BOLT11 invoice, set for incoming payments
	CreatedAt      time.Time
	SettledAt      time.Time
}

// PaymentEvent notifies that a payment newly appeared as pending or
// transitioned to settled. It carries a full snapshot, not a delta.
// Events are delivered at least once; duplicate suppression is the
// consumer's responsibility, keyed by Payment.Identifier.
type PaymentEvent struct {
	Payment Payment
}

// Settings describes the static capabilities of a settlement backend.
// Fetched once at startup and cached for the process lifetime.
type Settings struct {
	Units              []Unit
	Bolt11             bool
	Spark              bool
	MPP                bool
	Amountless         bool
	InvoiceDescription bool
	MinSendSats        int64
	MaxSendSats        int64
}

// SupportsUnit reports whether the backend accepts the given unit.
func (s *Settings) SupportsUnit(unit Unit) bool {
	for _, u := range s.Units {
		if u == unit {
			return true
		}
	}
	return false
}

// FeeEstimate is the backend's advisory answer to a quote request. It
// does not reserve liquidity; re-quoting is always safe.
type FeeEstimate struct {
	Identifier string // payment hash of the quoted request, if known
	AmountSats int64
	FeeSats    int64
	Unit       Unit
	ExpiresAt  time.Time
}
