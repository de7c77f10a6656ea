// Package payments drives invoice creation and payment sending against
// the settlement backend and normalizes results and failure modes for
// the RPC facade.
package payments

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"sparkbridge/internal/backend"
	"sparkbridge/internal/logging"
	"sparkbridge/internal/metrics"
	"sparkbridge/internal/store"
)

var validIdentifierPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Service is the payment execution and status query adapter. It holds no
// authoritative payment state; the backend owns that. The store only
// keeps identifier-to-request reconciliation rows.
type Service struct {
	backend     backend.Backend
	store       store.Store
	settings    *backend.Settings
	sendTimeout time.Duration
}

// NewService creates a payment service. sendTimeout bounds how long a
// send may stay unconfirmed before the adapter reports Indeterminate.
func NewService(b backend.Backend, st store.Store, settings *backend.Settings, sendTimeout time.Duration) *Service {
	if sendTimeout == 0 {
		sendTimeout = 90 * time.Second
	}
	return &Service{
		backend:     b,
		store:       st,
		settings:    settings,
		sendTimeout: sendTimeout,
	}
}

// CreatePayment creates an invoice for an incoming payment. The returned
// payment is pending with a non-empty identifier usable for later status
// checks. No local state is kept beyond the reconciliation row.
func (s *Service) CreatePayment(ctx context.Context, unit backend.Unit, opt backend.PaymentOption) (*backend.Payment, error) {
	if err := backend.ValidateOption(opt); err != nil {
		return nil, err
	}
	create, ok := opt.(backend.Bolt11CreateOption)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a creation option", backend.ErrInvalidRequest, opt.Describe())
	}
	if !s.settings.SupportsUnit(unit) {
		return nil, fmt.Errorf("%w: unsupported unit %q", backend.ErrInvalidRequest, unit)
	}
	if create.AmountSats == 0 && !s.settings.Amountless {
		return nil, fmt.Errorf("%w: backend does not support amountless invoices", backend.ErrInvalidAmount)
	}

	p, err := s.backend.CreateInvoice(ctx, create.Description, create.AmountSats, time.Duration(create.ExpirySeconds)*time.Second)
	if err != nil {
		return nil, err
	}
	if p.Identifier == "" {
		return nil, fmt.Errorf("%w: backend returned an invoice without identifier", backend.ErrBackendUnavailable)
	}

	if err := s.store.SaveIncomingRef(ctx, &store.PaymentRef{
		Identifier:     p.Identifier,
		PaymentRequest: p.PaymentRequest,
		AmountSats:     p.AmountSats,
		CreatedAt:      time.Now().UTC(),
	}); err != nil {
		// The invoice exists on the backend either way; a lost row only
		// degrades later status checks.
		logging.Payments.WithError(err).WithField("identifier", p.Identifier).
			Error("failed to persist incoming payment reference")
	}

	metrics.InvoicesCreated.Inc()
	logging.Payments.WithField("identifier", p.Identifier).Info("created payment request")
	return p, nil
}

type sendResult struct {
	payment  *backend.Payment
	err      error
	timedOut bool
}

// MakePayment executes an outgoing payment and blocks until a terminal
// outcome. On an unconfirmed timeout it returns a payment with
// StatusIndeterminate rather than a fabricated failure, so callers never
// double-pay on a false negative. If the caller's context is cancelled
// the in-flight send is NOT abandoned; the adapter stops waiting and the
// outcome is logged and persisted for later reconciliation.
func (s *Service) MakePayment(ctx context.Context, unit backend.Unit, opt backend.PaymentOption, maxFeeSats int64) (*backend.Payment, error) {
	if err := s.validateSend(unit, opt, maxFeeSats); err != nil {
		return nil, err
	}

	// The send runs on its own context so a disconnecting caller cannot
	// cancel money movement mid-flight.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sendTimeout)

	resCh := make(chan sendResult, 1)
	go func() {
		p, err := s.backend.SendPayment(sendCtx, opt, unit, maxFeeSats)
		timedOut := errors.Is(sendCtx.Err(), context.DeadlineExceeded)
		cancel()
		if err == nil {
			s.recordOutgoing(p)
		}
		resCh <- sendResult{payment: p, err: err, timedOut: timedOut}
	}()

	select {
	case res := <-resCh:
		return s.finishSend(res, opt, unit)
	case <-ctx.Done():
		// Keep collecting the outcome in the background for the logs.
		go func() {
			res := <-resCh
			if res.err != nil {
				logging.Payments.WithError(res.err).WithField("option", opt.Describe()).
					Warn("send finished after caller disconnect")
			} else {
				logging.Payments.WithFields(map[string]interface{}{
					"identifier": res.payment.Identifier,
					"status":     res.payment.Status,
				}).Info("send finished after caller disconnect")
			}
		}()
		return nil, fmt.Errorf("caller cancelled while awaiting send outcome: %w", ctx.Err())
	}
}

func (s *Service) validateSend(unit backend.Unit, opt backend.PaymentOption, maxFeeSats int64) error {
	if err := backend.ValidateOption(opt); err != nil {
		return err
	}
	switch opt.(type) {
	case backend.Bolt11CreateOption:
		return fmt.Errorf("%w: cannot send to a creation option", backend.ErrInvalidRequest)
	}
	if !s.settings.SupportsUnit(unit) {
		return fmt.Errorf("%w: unsupported unit %q", backend.ErrInvalidRequest, unit)
	}
	if maxFeeSats < 0 {
		return fmt.Errorf("%w: negative max fee", backend.ErrInvalidRequest)
	}

	var amount int64
	switch o := opt.(type) {
	case backend.Bolt11Option:
		amount = o.AmountSats
	case backend.SparkAddressOption:
		amount = o.AmountSats
	}
	// Amounts embedded in an invoice are validated by the backend.
	if amount > 0 {
		if s.settings.MinSendSats > 0 && amount < s.settings.MinSendSats {
			return fmt.Errorf("%w: %d sats below minimum %d", backend.ErrInvalidAmount, amount, s.settings.MinSendSats)
		}
		if s.settings.MaxSendSats > 0 && amount > s.settings.MaxSendSats {
			return fmt.Errorf("%w: %d sats above maximum %d", backend.ErrInvalidAmount, amount, s.settings.MaxSendSats)
		}
	}
	return nil
}

func (s *Service) finishSend(res sendResult, opt backend.PaymentOption, unit backend.Unit) (*backend.Payment, error) {
	if res.err == nil {
		metrics.PaymentsSent.WithLabelValues(string(res.payment.Status)).Inc()
		return res.payment, nil
	}

	err := res.err
	switch {
	case errors.Is(err, backend.ErrUnroutable),
		errors.Is(err, backend.ErrInsufficientFunds),
		errors.Is(err, backend.ErrInvalidAmount),
		errors.Is(err, backend.ErrInvalidRequest):
		// Confirmed rejections: the backend took no side effect.
		metrics.PaymentsSent.WithLabelValues("rejected").Inc()
		return nil, err
	case errors.Is(err, backend.ErrTimeout), res.timedOut:
		return s.reconcileUnconfirmed(opt, unit, err)
	default:
		// Connectivity failures mid-send are just as unconfirmed.
		if errors.Is(err, backend.ErrBackendUnavailable) {
			return s.reconcileUnconfirmed(opt, unit, err)
		}
		metrics.PaymentsSent.WithLabelValues("failed").Inc()
		return nil, err
	}
}

// reconcileUnconfirmed is the last word on a send whose outcome the
// backend did not confirm in time. It asks the backend for the payment's
// current state and only reports Failed when the backend says so;
// anything else becomes Indeterminate.
func (s *Service) reconcileUnconfirmed(opt backend.PaymentOption, unit backend.Unit, sendErr error) (*backend.Payment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logging.Payments.WithError(sendErr).WithField("option", opt.Describe()).
		Warn("send unconfirmed, reconciling against backend state")

	if est, err := s.backend.Quote(ctx, opt, unit); err == nil && est.Identifier != "" {
		if p, err := s.backend.CheckOutgoing(ctx, est.Identifier); err == nil {
			switch p.Status {
			case backend.StatusSettled, backend.StatusFailed:
				metrics.PaymentsSent.WithLabelValues(string(p.Status)).Inc()
				s.recordOutgoing(p)
				return p, nil
			}
		}
		metrics.PaymentsSent.WithLabelValues("indeterminate").Inc()
		return &backend.Payment{
			Identifier: est.Identifier,
			Direction:  backend.DirectionOutgoing,
			AmountSats: est.AmountSats,
			Unit:       unit,
			Status:     backend.StatusIndeterminate,
		}, nil
	}

	metrics.PaymentsSent.WithLabelValues("indeterminate").Inc()
	return &backend.Payment{
		Direction: backend.DirectionOutgoing,
		Unit:      unit,
		Status:    backend.StatusIndeterminate,
	}, nil
}

func (s *Service) recordOutgoing(p *backend.Payment) {
	if p == nil || p.Identifier == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.SaveOutgoingRef(ctx, &store.PaymentRef{
		Identifier:     p.Identifier,
		PaymentRequest: p.PaymentRequest,
		AmountSats:     p.AmountSats,
		CreatedAt:      time.Now().UTC(),
	}); err != nil {
		logging.Payments.WithError(err).WithField("identifier", p.Identifier).
			Error("failed to persist outgoing payment reference")
	}
}

// RecordOutgoingQuote persists the identifier-to-request mapping learned
// at quote time so a later timed-out send stays reconcilable.
func (s *Service) RecordOutgoingQuote(ctx context.Context, identifier string, opt backend.PaymentOption, amountSats int64) {
	if identifier == "" {
		return
	}
	var request string
	if o, ok := opt.(backend.Bolt11Option); ok {
		request = o.Invoice
	}
	if err := s.store.SaveOutgoingRef(ctx, &store.PaymentRef{
		Identifier:     identifier,
		PaymentRequest: request,
		AmountSats:     amountSats,
		CreatedAt:      time.Now().UTC(),
	}); err != nil {
		logging.Payments.WithError(err).WithField("identifier", identifier).
			Error("failed to persist quoted payment reference")
	}
}

// CheckIncoming resolves the state of an incoming payment. An unknown
// identifier yields an empty result, not an error: the payment may
// simply not be visible yet.
func (s *Service) CheckIncoming(ctx context.Context, identifier string) ([]*backend.Payment, error) {
	if !validIdentifierPattern.MatchString(identifier) {
		return nil, fmt.Errorf("%w: malformed identifier %q", backend.ErrInvalidRequest, identifier)
	}

	var paymentRequest string
	ref, err := s.store.GetIncomingRef(ctx, identifier)
	switch {
	case err == nil:
		paymentRequest = ref.PaymentRequest
	case errors.Is(err, store.ErrNotFound):
		logging.Payments.WithField("identifier", identifier).Debug("no stored reference for incoming check")
	default:
		return nil, err
	}

	p, err := s.backend.CheckIncoming(ctx, identifier, paymentRequest)
	if errors.Is(err, backend.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []*backend.Payment{p}, nil
}

// CheckOutgoing resolves the state of an outgoing payment. NotFound is a
// defined outcome for stale or unknown identifiers.
func (s *Service) CheckOutgoing(ctx context.Context, identifier string) (*backend.Payment, error) {
	if !validIdentifierPattern.MatchString(identifier) {
		return nil, fmt.Errorf("%w: malformed identifier %q", backend.ErrInvalidRequest, identifier)
	}
	return s.backend.CheckOutgoing(ctx, identifier)
}

// RestoreIncomingRefs reloads persisted incoming references on startup
// so status checks work immediately after a restart.
func (s *Service) RestoreIncomingRefs(ctx context.Context) error {
	refs, err := s.store.ListIncomingRefs(ctx)
	if err != nil {
		return err
	}
	logging.Payments.WithField("count", len(refs)).Info("restored incoming payment references")
	return nil
}
