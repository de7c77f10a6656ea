// Package rpc exposes the payment processor service over gRPC with a
// JSON message codec and maps domain errors onto status codes.
package rpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sparkbridge/internal/backend"
	"sparkbridge/internal/events"
	"sparkbridge/internal/logging"
	"sparkbridge/internal/payments"
	"sparkbridge/internal/quote"
)

// Server is the RPC facade over the quote engine, payment service and
// event bridge. It validates and converts wire messages; all payment
// semantics live below it.
type Server struct {
	settings *backend.Settings
	quotes   *quote.Engine
	payments *payments.Service
	bridge   *events.Bridge
}

var _ PaymentProcessorServer = (*Server)(nil)

// NewServer creates the RPC facade.
func NewServer(settings *backend.Settings, quotes *quote.Engine, svc *payments.Service, bridge *events.Bridge) *Server {
	return &Server{
		settings: settings,
		quotes:   quotes,
		payments: svc,
		bridge:   bridge,
	}
}

// GetSettings reports the backend capability descriptor captured at
// startup. Capabilities are static for the process lifetime.
func (s *Server) GetSettings(ctx context.Context, req *GetSettingsRequest) (*GetSettingsResponse, error) {
	units := make([]string, 0, len(s.settings.Units))
	for _, u := range s.settings.Units {
		units = append(units, string(u))
	}
	return &GetSettingsResponse{
		Units:              units,
		Bolt11:             s.settings.Bolt11,
		Spark:              s.settings.Spark,
		MPP:                s.settings.MPP,
		Amountless:         s.settings.Amountless,
		InvoiceDescription: s.settings.InvoiceDescription,
		MinSendSats:        s.settings.MinSendSats,
		MaxSendSats:        s.settings.MaxSendSats,
	}, nil
}

func (s *Server) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*Payment, error) {
	opt, err := req.Options.ToBackend()
	if err != nil {
		return nil, statusFromError(err)
	}
	p, err := s.payments.CreatePayment(ctx, backend.Unit(req.Unit), opt)
	if err != nil {
		return nil, statusFromError(err)
	}
	return paymentFromBackend(p), nil
}

func (s *Server) GetPaymentQuote(ctx context.Context, req *GetPaymentQuoteRequest) (*GetPaymentQuoteResponse, error) {
	opt, err := req.Options.ToBackend()
	if err != nil {
		return nil, statusFromError(err)
	}
	q, err := s.quotes.GetQuote(ctx, opt, backend.Unit(req.Unit), req.MaxFeeSats)
	if err != nil {
		return nil, statusFromError(err)
	}

	// Persisting the identifier now keeps a later timed-out send of the
	// same request reconcilable.
	s.payments.RecordOutgoingQuote(ctx, q.Identifier, opt, q.AmountSats)

	resp := &GetPaymentQuoteResponse{
		Fingerprint: q.Fingerprint,
		Identifier:  q.Identifier,
		AmountSats:  q.AmountSats,
		FeeSats:     q.FeeSats,
		Unit:        string(q.Unit),
		Feasible:    q.Feasible,
	}
	if !q.ExpiresAt.IsZero() {
		resp.ExpiresAt = q.ExpiresAt.Unix()
	}
	return resp, nil
}

func (s *Server) MakePayment(ctx context.Context, req *MakePaymentRequest) (*Payment, error) {
	opt, err := req.PaymentOptions.ToBackend()
	if err != nil {
		return nil, statusFromError(err)
	}
	p, err := s.payments.MakePayment(ctx, backend.Unit(req.Unit), opt, req.MaxFeeSats)
	if err != nil {
		return nil, statusFromError(err)
	}
	return paymentFromBackend(p), nil
}

func (s *Server) CheckIncomingPayment(ctx context.Context, req *CheckIncomingPaymentRequest) (*CheckIncomingPaymentResponse, error) {
	found, err := s.payments.CheckIncoming(ctx, req.Identifier)
	if err != nil {
		return nil, statusFromError(err)
	}
	resp := &CheckIncomingPaymentResponse{Payments: []*Payment{}}
	for _, p := range found {
		resp.Payments = append(resp.Payments, paymentFromBackend(p))
	}
	return resp, nil
}

func (s *Server) CheckOutgoingPayment(ctx context.Context, req *CheckOutgoingPaymentRequest) (*Payment, error) {
	p, err := s.payments.CheckOutgoing(ctx, req.Identifier)
	if err != nil {
		return nil, statusFromError(err)
	}
	return paymentFromBackend(p), nil
}

// WaitIncomingPayment streams incoming payment events, pending and
// settled snapshots alike, until the client goes away or the bridge
// signals a terminal backend failure.
func (s *Server) WaitIncomingPayment(req *WaitIncomingPaymentRequest, stream PaymentProcessor_WaitIncomingPaymentServer) error {
	sub, err := s.bridge.Subscribe()
	if err != nil {
		if errors.Is(err, events.ErrBridgeClosed) {
			return status.Error(codes.Unavailable, err.Error())
		}
		return statusFromError(err)
	}
	defer sub.Close()

	logging.RPC.Debug("incoming payment stream opened")
	for {
		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		case ev, ok := <-sub.C:
			if !ok {
				if cause := sub.Err(); cause != nil {
					return statusFromError(cause)
				}
				// Server shutdown; end the stream cleanly.
				return nil
			}
			if err := stream.Send(&IncomingPaymentEvent{Payment: paymentFromBackend(&ev.Payment)}); err != nil {
				return err
			}
		}
	}
}
