package backend

import (
	"fmt"
	"strings"
)

// PaymentOption is a closed set of ways to address a payment. Exactly one
// variant is active per request.
type PaymentOption interface {
	option()
	// Describe returns a short human-readable tag for error context.
	Describe() string
}

// Bolt11Option pays an existing BOLT11 invoice. AmountSats must be set
// when the invoice itself encodes no amount.
type Bolt11Option struct {
	Invoice    string
	AmountSats int64
}

// Bolt11CreateOption requests a fresh BOLT11 invoice. AmountSats of zero
// asks for an amountless invoice.
type Bolt11CreateOption struct {
	Description   string
	AmountSats    int64
	ExpirySeconds int64
}

// SparkAddressOption pays a Spark address directly. Spark addresses carry
// no amount, so AmountSats is always required.
type SparkAddressOption struct {
	Address    string
	AmountSats int64
}

func (Bolt11Option) option()       {}
func (Bolt11CreateOption) option() {}
func (SparkAddressOption) option() {}

func (Bolt11Option) Describe() string       { return "bolt11" }
func (Bolt11CreateOption) Describe() string { return "bolt11_create" }
func (SparkAddressOption) Describe() string { return "spark_address" }

// bolt11Prefixes covers mainnet, testnet, signet and regtest invoices.
var bolt11Prefixes = []string{"lnbc", "lntb", "lntbs", "lnbcrt"}

func looksLikeBolt11(invoice string) bool {
	inv := strings.ToLower(invoice)
	for _, p := range bolt11Prefixes {
		if strings.HasPrefix(inv, p) {
			return true
		}
	}
	return false
}

// bolt11HasAmount reports whether the invoice human-readable part encodes
// an amount. The HRP runs up to the last bech32 separator '1'; whatever
// sits between the network prefix and that separator is the amount.
// Authoritative decoding is the backend's job.
func bolt11HasAmount(invoice string) bool {
	inv := strings.ToLower(invoice)
	longest := ""
	for _, p := range bolt11Prefixes {
		// Longest matching prefix wins (lntb vs lntbs).
		if strings.HasPrefix(inv, p) && len(p) > len(longest) {
			longest = p
		}
	}
	if longest == "" {
		return false
	}
	sep := strings.LastIndexByte(inv, '1')
	if sep <= len(longest) {
		return false
	}
	amount := inv[len(longest):sep]
	return amount[0] >= '1' && amount[0] <= '9'
}

// ValidateOption checks that a payment option is well-formed. It never
// contacts the backend; failures are local InvalidRequest errors.
func ValidateOption(opt PaymentOption) error {
	switch o := opt.(type) {
	case Bolt11Option:
		if o.Invoice == "" {
			return fmt.Errorf("%w: bolt11 invoice is empty", ErrInvalidRequest)
		}
		if !looksLikeBolt11(o.Invoice) {
			return fmt.Errorf("%w: not a bolt11 invoice", ErrInvalidRequest)
		}
		if o.AmountSats < 0 {
			return fmt.Errorf("%w: negative amount", ErrInvalidRequest)
		}
		if !bolt11HasAmount(o.Invoice) && o.AmountSats == 0 {
			return fmt.Errorf("%w: amountless invoice requires an explicit amount", ErrInvalidRequest)
		}
		return nil
	case Bolt11CreateOption:
		if o.AmountSats < 0 {
			return fmt.Errorf("%w: negative amount", ErrInvalidRequest)
		}
		if o.ExpirySeconds < 0 {
			return fmt.Errorf("%w: negative expiry", ErrInvalidRequest)
		}
		return nil
	case SparkAddressOption:
		if o.Address == "" {
			return fmt.Errorf("%w: spark address is empty", ErrInvalidRequest)
		}
		if !strings.HasPrefix(strings.ToLower(o.Address), "sp") {
			return fmt.Errorf("%w: not a spark address", ErrInvalidRequest)
		}
		if o.AmountSats <= 0 {
			return fmt.Errorf("%w: spark address payments require a positive amount", ErrInvalidRequest)
		}
		return nil
	case nil:
		return fmt.Errorf("%w: payment option is required", ErrInvalidRequest)
	default:
		return fmt.Errorf("%w: unsupported payment option %s", ErrInvalidRequest, opt.Describe())
	}
}
