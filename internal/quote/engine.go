// Package quote computes fee estimates and feasibility for payment
// options before anything is committed. Quotes are advisory only; they
// reserve no backend liquidity, so re-quoting is always safe.
package quote

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"sparkbridge/internal/backend"
	"sparkbridge/internal/logging"
	"sparkbridge/internal/metrics"
)

// Quote is a fee estimate bound to a request fingerprint.
type Quote struct {
	Fingerprint string
	Identifier  string // payment hash of the quoted request, if known
	AmountSats  int64
	FeeSats     int64
	Unit        backend.Unit
	ExpiresAt   time.Time
	Feasible    bool
}

type cachedQuote struct {
	quote   Quote
	savedAt time.Time
}

// Engine validates quote requests and delegates fee estimation to the
// backend. Results are cached per fingerprint for a bounded TTL to keep
// repeated quoting cheap; the cache is an optimization only.
type Engine struct {
	backend  backend.Backend
	settings *backend.Settings
	ttl      time.Duration

	mu    sync.Mutex
	cache map[string]cachedQuote
}

// NewEngine creates an engine. A zero ttl disables caching.
func NewEngine(b backend.Backend, settings *backend.Settings, ttl time.Duration) *Engine {
	return &Engine{
		backend:  b,
		settings: settings,
		ttl:      ttl,
		cache:    make(map[string]cachedQuote),
	}
}

// GetQuote validates the option locally, then asks the backend for a fee
// estimate. Malformed input fails fast with InvalidRequest and never
// reaches the backend; Unroutable is surfaced verbatim.
func (e *Engine) GetQuote(ctx context.Context, opt backend.PaymentOption, unit backend.Unit, maxFeeSats int64) (*Quote, error) {
	if err := backend.ValidateOption(opt); err != nil {
		return nil, err
	}
	switch opt.(type) {
	case backend.Bolt11CreateOption:
		return nil, fmt.Errorf("%w: cannot quote an invoice creation", backend.ErrInvalidRequest)
	}
	if !e.settings.SupportsUnit(unit) {
		return nil, fmt.Errorf("%w: unsupported unit %q", backend.ErrInvalidRequest, unit)
	}
	if maxFeeSats < 0 {
		return nil, fmt.Errorf("%w: negative max fee", backend.ErrInvalidRequest)
	}

	fp := Fingerprint(opt, unit)

	if q, ok := e.cachedFor(fp); ok {
		logging.Payments.WithField("fingerprint", fp).Debug("quote served from cache")
		metrics.QuoteRequests.WithLabelValues("cache_hit").Inc()
		q.Feasible = q.Feasible && withinCeiling(q.FeeSats, maxFeeSats)
		return &q, nil
	}

	est, err := e.backend.Quote(ctx, opt, unit)
	if err != nil {
		metrics.QuoteRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.QuoteRequests.WithLabelValues("ok").Inc()

	q := Quote{
		Fingerprint: fp,
		Identifier:  est.Identifier,
		AmountSats:  est.AmountSats,
		FeeSats:     est.FeeSats,
		Unit:        est.Unit,
		ExpiresAt:   est.ExpiresAt,
		Feasible:    true,
	}
	e.save(fp, q)

	q.Feasible = withinCeiling(q.FeeSats, maxFeeSats)
	return &q, nil
}

func withinCeiling(feeSats, maxFeeSats int64) bool {
	return maxFeeSats == 0 || feeSats <= maxFeeSats
}

func (e *Engine) cachedFor(fp string) (Quote, bool) {
	if e.ttl == 0 {
		return Quote{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.cache[fp]
	if !ok {
		return Quote{}, false
	}
	if time.Since(c.savedAt) > e.ttl {
		delete(e.cache, fp)
		return Quote{}, false
	}
	return c.quote, true
}

func (e *Engine) save(fp string, q Quote) {
	if e.ttl == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	// Drop stale entries opportunistically so the cache stays bounded.
	for k, c := range e.cache {
		if time.Since(c.savedAt) > e.ttl {
			delete(e.cache, k)
		}
	}
	e.cache[fp] = cachedQuote{quote: q, savedAt: time.Now()}
}

// Fingerprint derives a stable key from the option variant, its
// normalized payload and the unit. Equal requests fingerprint equally
// regardless of field ordering or invoice casing.
func Fingerprint(opt backend.PaymentOption, unit backend.Unit) string {
	h := sha256.New()
	switch o := opt.(type) {
	case backend.Bolt11Option:
		fmt.Fprintf(h, "bolt11|%s|%d|%s", normalizeInvoice(o.Invoice), o.AmountSats, unit)
	case backend.SparkAddressOption:
		fmt.Fprintf(h, "spark|%s|%d|%s", o.Address, o.AmountSats, unit)
	case backend.Bolt11CreateOption:
		fmt.Fprintf(h, "bolt11_create|%s|%d|%d|%s", o.Description, o.AmountSats, o.ExpirySeconds, unit)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// BOLT11 is case-insensitive as a whole; normalize to lower.
func normalizeInvoice(invoice string) string {
	return strings.ToLower(invoice)
}
