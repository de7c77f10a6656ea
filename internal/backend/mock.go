package backend

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockBackend implements Backend in memory for development and testing.
// Settlement can be driven explicitly via the Simulate* helpers.
type MockBackend struct {
	mu       sync.Mutex
	incoming map[string]*Payment // keyed by payment hash
	outgoing map[string]*Payment

	events         chan PaymentEvent
	subscribed     bool
	subscribeCount int

	// Failure injection for tests.
	SendDelay    time.Duration
	SendErr      error
	QuoteErr     error
	SubscribeErr error
	FeeSats      int64

	// QuoteIdentifier, when set, is returned as the payment hash of every
	// fee estimate, the way a real node resolves an invoice to its hash.
	QuoteIdentifier string
}

// A compile time check to ensure that MockBackend fully implements Backend.
var _ Backend = (*MockBackend)(nil)

// NewMockBackend creates an empty mock backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		incoming: make(map[string]*Payment),
		outgoing: make(map[string]*Payment),
	}
}

func (m *MockBackend) GetSettings(ctx context.Context) (*Settings, error) {
	return &Settings{
		Units:       []Unit{UnitSat},
		Bolt11:      true,
		Spark:       true,
		MPP:         true,
		MinSendSats: 1,
		MaxSendSats: 10_000_000,
	}, nil
}

func (m *MockBackend) CreateInvoice(ctx context.Context, description string, amountSats int64, expiry time.Duration) (*Payment, error) {
	if amountSats < 0 {
		return nil, fmt.Errorf("%w: %d sats", ErrInvalidAmount, amountSats)
	}

	hash, err := generatePaymentHash()
	if err != nil {
		return nil, err
	}

	p := &Payment{
		ID:             uuid.NewString(),
		Identifier:     hash,
		Direction:      DirectionIncoming,
		AmountSats:     amountSats,
		Unit:           UnitSat,
		Status:         StatusPending,
		PaymentRequest: "lnbc1" + hash[:24], // fake BOLT11
		CreatedAt:      time.Now().UTC(),
	}

	m.mu.Lock()
	m.incoming[hash] = p
	m.mu.Unlock()

	snapshot := *p
	return &snapshot, nil
}

func (m *MockBackend) Quote(ctx context.Context, opt PaymentOption, unit Unit) (*FeeEstimate, error) {
	m.mu.Lock()
	quoteErr := m.QuoteErr
	feeSats := m.FeeSats
	identifier := m.QuoteIdentifier
	m.mu.Unlock()
	if quoteErr != nil {
		return nil, quoteErr
	}

	var amount int64
	switch o := opt.(type) {
	case Bolt11Option:
		amount = o.AmountSats
	case SparkAddressOption:
		amount = o.AmountSats
	default:
		return nil, fmt.Errorf("%w: cannot quote %s option", ErrInvalidRequest, opt.Describe())
	}

	return &FeeEstimate{
		Identifier: identifier,
		AmountSats: amount,
		FeeSats:    feeSats,
		Unit:       unit,
		ExpiresAt:  time.Now().Add(time.Minute).UTC(),
	}, nil
}

func (m *MockBackend) SendPayment(ctx context.Context, opt PaymentOption, unit Unit, maxFeeSats int64) (*Payment, error) {
	m.mu.Lock()
	delay := m.SendDelay
	sendErr := m.SendErr
	feeSats := m.FeeSats
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: send interrupted", ErrTimeout)
		}
	}
	if sendErr != nil {
		return nil, sendErr
	}

	var amount int64
	switch o := opt.(type) {
	case Bolt11Option:
		amount = o.AmountSats
	case SparkAddressOption:
		amount = o.AmountSats
	default:
		return nil, fmt.Errorf("%w: cannot send to %s option", ErrInvalidRequest, opt.Describe())
	}

	hash, err := generatePaymentHash()
	if err != nil {
		return nil, err
	}
	preimage, err := generatePaymentHash()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Payment{
		ID:         uuid.NewString(),
		Identifier: hash,
		Direction:  DirectionOutgoing,
		AmountSats: amount,
		FeeSats:    feeSats,
		Unit:       unit,
		Status:     StatusSettled,
		Preimage:   preimage,
		CreatedAt:  now,
		SettledAt:  now,
	}

	m.mu.Lock()
	m.outgoing[hash] = p
	m.mu.Unlock()

	snapshot := *p
	return &snapshot, nil
}

func (m *MockBackend) CheckIncoming(ctx context.Context, identifier, paymentRequest string) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.incoming[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: incoming %s", ErrNotFound, identifier)
	}
	snapshot := *p
	return &snapshot, nil
}

func (m *MockBackend) CheckOutgoing(ctx context.Context, identifier string) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.outgoing[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: outgoing %s", ErrNotFound, identifier)
	}
	snapshot := *p
	return &snapshot, nil
}

func (m *MockBackend) SubscribeIncoming(ctx context.Context) (<-chan PaymentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SubscribeErr != nil {
		return nil, m.SubscribeErr
	}

	// A new subscription replaces the previous one, like the real node:
	// no history is replayed.
	if m.events != nil {
		close(m.events)
	}
	m.events = make(chan PaymentEvent, 100)
	m.subscribed = true
	m.subscribeCount++
	return m.events, nil
}

// SubscribeCount reports how many subscriptions have been opened. Useful
// for asserting resubscription behavior in tests.
func (m *MockBackend) SubscribeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribeCount
}

// Subscribed reports whether an event subscription is currently open.
func (m *MockBackend) Subscribed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events != nil
}

func (m *MockBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events != nil {
		close(m.events)
		m.events = nil
	}
	return nil
}

// SimulateIncomingSettled marks a previously created invoice as settled
// and emits the corresponding event.
func (m *MockBackend) SimulateIncomingSettled(identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.incoming[identifier]
	if !ok {
		return fmt.Errorf("%w: incoming %s", ErrNotFound, identifier)
	}
	p.Status = StatusSettled
	p.SettledAt = time.Now().UTC()
	m.emit(PaymentEvent{Payment: *p})
	return nil
}

// EmitEvent pushes an arbitrary event into the current subscription.
func (m *MockBackend) EmitEvent(ev PaymentEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emit(ev)
}

// emit delivers under m.mu so a concurrent DropSubscription or Close
// cannot close the channel mid-send. Delivery is best effort: a full
// buffer drops the event rather than deadlocking on the lock.
func (m *MockBackend) emit(ev PaymentEvent) {
	if m.events == nil {
		return
	}
	select {
	case m.events <- ev:
	default:
	}
}

// PutOutgoing stores an outgoing payment snapshot directly, letting
// tests shape what later status checks report.
func (m *MockBackend) PutOutgoing(p *Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := *p
	m.outgoing[p.Identifier] = &snapshot
}

// DropSubscription closes the current event channel, simulating a
// backend disconnect mid-stream.
func (m *MockBackend) DropSubscription() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events != nil {
		close(m.events)
		m.events = nil
	}
}

func generatePaymentHash() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
