package quote

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"sparkbridge/internal/backend"
)

// countingBackend counts quote calls so cache behavior is observable.
type countingBackend struct {
	*backend.MockBackend
	quoteCalls int
}

func (c *countingBackend) Quote(ctx context.Context, opt backend.PaymentOption, unit backend.Unit) (*backend.FeeEstimate, error) {
	c.quoteCalls++
	return c.MockBackend.Quote(ctx, opt, unit)
}

func testSettings() *backend.Settings {
	return &backend.Settings{
		Units:  []backend.Unit{backend.UnitSat},
		Bolt11: true,
		Spark:  true,
	}
}

func TestEngine_RejectsInvalidRequests(t *testing.T) {
	be := &countingBackend{MockBackend: backend.NewMockBackend()}
	eng := NewEngine(be, testSettings(), time.Minute)
	ctx := context.Background()

	tests := []struct {
		name string
		opt  backend.PaymentOption
		unit backend.Unit
		fee  int64
	}{
		{
			name: "creation option",
			opt:  backend.Bolt11CreateOption{AmountSats: 100},
			unit: backend.UnitSat,
		},
		{
			name: "malformed invoice",
			opt:  backend.Bolt11Option{Invoice: "garbage"},
			unit: backend.UnitSat,
		},
		{
			name: "unsupported unit",
			opt:  backend.Bolt11Option{Invoice: "lnbc100n1pexample"},
			unit: backend.Unit("msat"),
		},
		{
			name: "negative max fee",
			opt:  backend.Bolt11Option{Invoice: "lnbc100n1pexample"},
			unit: backend.UnitSat,
			fee:  -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.GetQuote(ctx, tt.opt, tt.unit, tt.fee)
			if !errors.Is(err, backend.ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
	if be.quoteCalls != 0 {
		t.Errorf("invalid requests reached the backend %d times", be.quoteCalls)
	}
}

func TestEngine_CachesWithinTTL(t *testing.T) {
	be := &countingBackend{MockBackend: backend.NewMockBackend()}
	eng := NewEngine(be, testSettings(), time.Minute)
	ctx := context.Background()
	opt := backend.Bolt11Option{Invoice: "lnbc100n1pexample"}

	first, err := eng.GetQuote(ctx, opt, backend.UnitSat, 0)
	if err != nil {
		t.Fatalf("first quote failed: %v", err)
	}
	second, err := eng.GetQuote(ctx, opt, backend.UnitSat, 0)
	if err != nil {
		t.Fatalf("second quote failed: %v", err)
	}

	if be.quoteCalls != 1 {
		t.Errorf("expected 1 backend call, got %d", be.quoteCalls)
	}
	if first.Fingerprint != second.Fingerprint {
		t.Errorf("fingerprints differ: %q vs %q", first.Fingerprint, second.Fingerprint)
	}
}

func TestEngine_ZeroTTLDisablesCache(t *testing.T) {
	be := &countingBackend{MockBackend: backend.NewMockBackend()}
	eng := NewEngine(be, testSettings(), 0)
	ctx := context.Background()
	opt := backend.Bolt11Option{Invoice: "lnbc100n1pexample"}

	for i := 0; i < 2; i++ {
		if _, err := eng.GetQuote(ctx, opt, backend.UnitSat, 0); err != nil {
			t.Fatalf("quote %d failed: %v", i, err)
		}
	}
	if be.quoteCalls != 2 {
		t.Errorf("expected 2 backend calls, got %d", be.quoteCalls)
	}
}

func TestEngine_Feasibility(t *testing.T) {
	be := backend.NewMockBackend()
	be.FeeSats = 5
	eng := NewEngine(be, testSettings(), 0)
	ctx := context.Background()
	opt := backend.Bolt11Option{Invoice: "lnbc100n1pexample"}

	tests := []struct {
		name     string
		maxFee   int64
		feasible bool
	}{
		{"no ceiling", 0, true},
		{"fee at ceiling", 5, true},
		{"fee above ceiling", 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := eng.GetQuote(ctx, opt, backend.UnitSat, tt.maxFee)
			if err != nil {
				t.Fatalf("quote failed: %v", err)
			}
			if q.Feasible != tt.feasible {
				t.Errorf("expected feasible=%v with max fee %d, got %v", tt.feasible, tt.maxFee, q.Feasible)
			}
			if q.FeeSats != 5 {
				t.Errorf("expected fee 5, got %d", q.FeeSats)
			}
		})
	}
}

func TestEngine_CachedQuoteReappliesCeiling(t *testing.T) {
	be := backend.NewMockBackend()
	be.FeeSats = 5
	eng := NewEngine(be, testSettings(), time.Minute)
	ctx := context.Background()
	opt := backend.Bolt11Option{Invoice: "lnbc100n1pexample"}

	q, err := eng.GetQuote(ctx, opt, backend.UnitSat, 0)
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !q.Feasible {
		t.Fatal("expected feasible with no ceiling")
	}

	// Same request from cache with a tighter ceiling.
	q, err = eng.GetQuote(ctx, opt, backend.UnitSat, 2)
	if err != nil {
		t.Fatalf("cached quote failed: %v", err)
	}
	if q.Feasible {
		t.Error("expected infeasible under tighter ceiling")
	}
}

func TestEngine_BackendErrorsPassThrough(t *testing.T) {
	be := backend.NewMockBackend()
	be.QuoteErr = fmt.Errorf("%w: no route to destination", backend.ErrUnroutable)
	eng := NewEngine(be, testSettings(), time.Minute)

	_, err := eng.GetQuote(context.Background(), backend.Bolt11Option{Invoice: "lnbc100n1pexample"}, backend.UnitSat, 0)
	if !errors.Is(err, backend.ErrUnroutable) {
		t.Fatalf("expected ErrUnroutable, got %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	opt := backend.Bolt11Option{Invoice: "lnbc100n1pexample", AmountSats: 0}

	if Fingerprint(opt, backend.UnitSat) != Fingerprint(opt, backend.UnitSat) {
		t.Error("fingerprint is not stable")
	}

	upper := backend.Bolt11Option{Invoice: "LNBC100N1PEXAMPLE", AmountSats: 0}
	if Fingerprint(opt, backend.UnitSat) != Fingerprint(upper, backend.UnitSat) {
		t.Error("fingerprint should ignore invoice casing")
	}

	other := backend.Bolt11Option{Invoice: "lnbc100n1pexample", AmountSats: 42}
	if Fingerprint(opt, backend.UnitSat) == Fingerprint(other, backend.UnitSat) {
		t.Error("fingerprint should depend on the amount")
	}

	spark := backend.SparkAddressOption{Address: "lnbc100n1pexample", AmountSats: 0}
	if Fingerprint(opt, backend.UnitSat) == Fingerprint(spark, backend.UnitSat) {
		t.Error("fingerprint should depend on the option variant")
	}
}
