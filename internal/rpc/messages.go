package rpc

import (
	"fmt"

	"sparkbridge/internal/backend"
)

// Wire shapes of the payment processor RPC surface. Messages travel as
// JSON frames over gRPC (see codec.go).

type GetSettingsRequest struct{}

// GetSettingsResponse mirrors the backend capability descriptor.
type GetSettingsResponse struct {
	Units              []string `json:"units"`
	Bolt11             bool     `json:"bolt11"`
	Spark              bool     `json:"spark"`
	MPP                bool     `json:"mpp"`
	Amountless         bool     `json:"amountless"`
	InvoiceDescription bool     `json:"invoice_description"`
	MinSendSats        int64    `json:"min_send_sats"`
	MaxSendSats        int64    `json:"max_send_sats"`
}

// Bolt11 pays an existing BOLT11 invoice.
type Bolt11 struct {
	Invoice    string `json:"invoice"`
	AmountSats int64  `json:"amount_sats,omitempty"`
}

// Bolt11Create requests a fresh BOLT11 invoice.
type Bolt11Create struct {
	Description   string `json:"description,omitempty"`
	AmountSats    int64  `json:"amount_sats,omitempty"`
	ExpirySeconds int64  `json:"expiry_seconds,omitempty"`
}

// SparkAddress pays a Spark address directly.
type SparkAddress struct {
	Address    string `json:"address"`
	AmountSats int64  `json:"amount_sats"`
}

// PaymentOption carries exactly one of its variants.
type PaymentOption struct {
	Bolt11       *Bolt11       `json:"bolt11,omitempty"`
	Bolt11Create *Bolt11Create `json:"bolt11_create,omitempty"`
	SparkAddress *SparkAddress `json:"spark_address,omitempty"`
}

// ToBackend converts the wire option into the domain variant, enforcing
// that exactly one variant is set.
func (o *PaymentOption) ToBackend() (backend.PaymentOption, error) {
	if o == nil {
		return nil, fmt.Errorf("%w: payment option is required", backend.ErrInvalidRequest)
	}

	count := 0
	var opt backend.PaymentOption
	if o.Bolt11 != nil {
		count++
		opt = backend.Bolt11Option{Invoice: o.Bolt11.Invoice, AmountSats: o.Bolt11.AmountSats}
	}
	if o.Bolt11Create != nil {
		count++
		opt = backend.Bolt11CreateOption{
			Description:   o.Bolt11Create.Description,
			AmountSats:    o.Bolt11Create.AmountSats,
			ExpirySeconds: o.Bolt11Create.ExpirySeconds,
		}
	}
	if o.SparkAddress != nil {
		count++
		opt = backend.SparkAddressOption{Address: o.SparkAddress.Address, AmountSats: o.SparkAddress.AmountSats}
	}
	if count != 1 {
		return nil, fmt.Errorf("%w: exactly one payment option variant must be set, got %d", backend.ErrInvalidRequest, count)
	}
	return opt, nil
}

// Payment is the wire view of a backend payment snapshot.
type Payment struct {
	ID             string `json:"id,omitempty"`
	Identifier     string `json:"identifier"`
	Direction      string `json:"direction"`
	AmountSats     int64  `json:"amount_sats"`
	FeeSats        int64  `json:"fee_sats"`
	Unit           string `json:"unit"`
	Status         string `json:"status"`
	Preimage       string `json:"preimage,omitempty"`
	PaymentRequest string `json:"payment_request,omitempty"`
	CreatedAt      int64  `json:"created_at,omitempty"`
	SettledAt      int64  `json:"settled_at,omitempty"`
}

func paymentFromBackend(p *backend.Payment) *Payment {
	if p == nil {
		return nil
	}
	out := &Payment{
		ID:             p.ID,
		Identifier:     p.Identifier,
		Direction:      string(p.Direction),
		AmountSats:     p.AmountSats,
		FeeSats:        p.FeeSats,
		Unit:           string(p.Unit),
		Status:         string(p.Status),
		Preimage:       p.Preimage,
		PaymentRequest: p.PaymentRequest,
	}
	if !p.CreatedAt.IsZero() {
		out.CreatedAt = p.CreatedAt.Unix()
	}
	if !p.SettledAt.IsZero() {
		out.SettledAt = p.SettledAt.Unix()
	}
	return out
}

type CreatePaymentRequest struct {
	Unit    string         `json:"unit"`
	Options *PaymentOption `json:"options"`
}

type GetPaymentQuoteRequest struct {
	Unit       string         `json:"unit"`
	Options    *PaymentOption `json:"options"`
	MaxFeeSats int64          `json:"max_fee_sats,omitempty"`
}

type GetPaymentQuoteResponse struct {
	Fingerprint string `json:"fingerprint"`
	Identifier  string `json:"identifier,omitempty"`
	AmountSats  int64  `json:"amount_sats"`
	FeeSats     int64  `json:"fee_sats"`
	Unit        string `json:"unit"`
	ExpiresAt   int64  `json:"expires_at,omitempty"`
	Feasible    bool   `json:"feasible"`
}

type MakePaymentRequest struct {
	Unit           string         `json:"unit"`
	PaymentOptions *PaymentOption `json:"payment_options"`
	MaxFeeSats     int64          `json:"max_fee_sats,omitempty"`
}

type CheckIncomingPaymentRequest struct {
	Identifier string `json:"identifier"`
}

// CheckIncomingPaymentResponse lists what the backend knows about the
// identifier. An empty list is a defined outcome, not an error: the
// payment may not be visible yet.
type CheckIncomingPaymentResponse struct {
	Payments []*Payment `json:"payments"`
}

type CheckOutgoingPaymentRequest struct {
	Identifier string `json:"identifier"`
}

type WaitIncomingPaymentRequest struct{}

// IncomingPaymentEvent is one frame of the WaitIncomingPayment stream.
type IncomingPaymentEvent struct {
	Payment *Payment `json:"payment"`
}
