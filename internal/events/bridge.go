// Package events multiplexes the settlement backend's single incoming
// payment event stream to any number of RPC stream consumers.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"sparkbridge/internal/backend"
	"sparkbridge/internal/logging"
	"sparkbridge/internal/metrics"
)

// ErrBridgeClosed is returned by Subscribe after the bridge shut down.
var ErrBridgeClosed = errors.New("event bridge closed")

const (
	// consumerBuffer bounds how far a consumer may lag before events are
	// dropped for it. Delivery stays at-least-once for consumers that
	// keep up; a lagging consumer loses events rather than stalling the
	// fan-out for everyone else.
	consumerBuffer = 256

	// maxConsecutiveFailures is the resubscription retry budget. Once
	// exhausted, attached consumers receive a terminal
	// BackendUnavailable signal and must reconnect.
	maxConsecutiveFailures = 8
)

// Subscription is one consumer's view of the bridge. C is closed when
// the consumer is detached, the bridge shuts down, or the retry budget
// is exhausted; Err tells those cases apart once C is closed.
type Subscription struct {
	C <-chan backend.PaymentEvent

	id     string
	bridge *Bridge

	mu     sync.Mutex
	err    error
	closed bool
}

// Err reports why the subscription ended. It returns nil until C has
// been closed, and nil after an ordinary Close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close detaches the consumer. Other consumers and the underlying
// backend subscription are unaffected.
func (s *Subscription) Close() {
	s.bridge.detach(s.id, nil)
}

// Bridge owns the single backend event subscription for the process
// lifetime and fans events out to attached consumers. Consumers attach
// and detach freely without disturbing backend subscription state.
type Bridge struct {
	backend backend.Backend

	// initialInterval seeds the resubscription backoff. Tests shrink it.
	initialInterval time.Duration

	mu        sync.Mutex
	consumers map[string]*consumer
	closed    bool
}

type consumer struct {
	sub *Subscription
	ch  chan backend.PaymentEvent
}

// NewBridge creates a bridge. Run must be started for events to flow.
func NewBridge(b backend.Backend) *Bridge {
	return &Bridge{
		backend:         b,
		initialInterval: time.Second,
		consumers:       make(map[string]*consumer),
	}
}

// Subscribe attaches a new consumer.
func (b *Bridge) Subscribe() (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBridgeClosed
	}

	ch := make(chan backend.PaymentEvent, consumerBuffer)
	sub := &Subscription{C: ch, id: uuid.NewString(), bridge: b}
	b.consumers[sub.id] = &consumer{sub: sub, ch: ch}
	metrics.StreamConsumers.Set(float64(len(b.consumers)))

	logging.Events.WithField("consumer", sub.id).Debug("consumer attached")
	return sub, nil
}

func (b *Bridge) detach(id string, cause error) {
	b.mu.Lock()
	c, ok := b.consumers[id]
	if ok {
		delete(b.consumers, id)
	}
	metrics.StreamConsumers.Set(float64(len(b.consumers)))
	b.mu.Unlock()

	if !ok {
		return
	}
	c.sub.mu.Lock()
	if !c.sub.closed {
		c.sub.closed = true
		c.sub.err = cause
		close(c.ch)
	}
	c.sub.mu.Unlock()
	logging.Events.WithField("consumer", id).Debug("consumer detached")
}

// failAll delivers a terminal error to every attached consumer.
func (b *Bridge) failAll(cause error) {
	b.mu.Lock()
	ids := make([]string, 0, len(b.consumers))
	for id := range b.consumers {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	for _, id := range ids {
		b.detach(id, cause)
	}
}

// Run maintains the backend subscription until ctx is cancelled,
// resubscribing with exponential backoff after stream failures. Events
// are delivered to each consumer in backend order; duplicates are passed
// through uncoalesced.
func (b *Bridge) Run(ctx context.Context) {
	defer b.shutdown()

	failures := 0
	bo := newBackoff(b.initialInterval)

	for ctx.Err() == nil {
		events, err := b.backend.SubscribeIncoming(ctx)
		if err != nil {
			failures++
			logging.Events.WithError(err).WithField("failures", failures).
				Warn("backend subscription failed")
			if failures >= maxConsecutiveFailures {
				logging.Events.Error("retry budget exhausted, signalling consumers")
				b.failAll(backend.ErrBackendUnavailable)
				failures = 0
				bo.Reset()
			}
			if !b.sleep(ctx, bo.NextBackOff()) {
				return
			}
			continue
		}

		metrics.Resubscribes.Inc()
		logging.Events.Info("subscribed to backend events")

		if b.pump(ctx, events) {
			// At least one event flowed; the link was healthy.
			failures = 0
			bo.Reset()
		} else {
			failures++
			if failures >= maxConsecutiveFailures {
				logging.Events.Error("retry budget exhausted, signalling consumers")
				b.failAll(backend.ErrBackendUnavailable)
				failures = 0
				bo.Reset()
			}
		}

		if ctx.Err() == nil {
			logging.Events.Warn("backend event stream ended, resubscribing")
			if !b.sleep(ctx, bo.NextBackOff()) {
				return
			}
		}
	}
}

// pump drains one backend subscription, reporting whether any event was
// received before the stream died.
func (b *Bridge) pump(ctx context.Context, events <-chan backend.PaymentEvent) bool {
	received := false
	for {
		select {
		case <-ctx.Done():
			return received
		case ev, ok := <-events:
			if !ok {
				return received
			}
			received = true
			b.fanout(ev)
		}
	}
}

func (b *Bridge) fanout(ev backend.PaymentEvent) {
	b.mu.Lock()
	consumers := make([]*consumer, 0, len(b.consumers))
	for _, c := range b.consumers {
		consumers = append(consumers, c)
	}
	b.mu.Unlock()

	metrics.EventsBridged.Inc()
	for _, c := range consumers {
		// Sends and closes are serialized on the subscription lock, so a
		// concurrent detach cannot close the channel mid-send.
		c.sub.mu.Lock()
		if c.sub.closed {
			c.sub.mu.Unlock()
			continue
		}
		select {
		case c.ch <- ev:
		default:
			// Consumer is not keeping up. Dropping preserves ordering
			// of what does get through and never stalls other
			// consumers; the consumer reconciles via status checks.
			metrics.EventsDropped.Inc()
			logging.Events.WithField("identifier", ev.Payment.Identifier).
				Warn("consumer buffer full, dropping event")
		}
		c.sub.mu.Unlock()
	}
}

func (b *Bridge) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (b *Bridge) shutdown() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.failAll(nil)
	logging.Events.Info("event bridge stopped")
}

func newBackoff(initial time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initial
	bo.Multiplier = 2
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // the bridge retries for the process lifetime
	bo.RandomizationFactor = 0.2
	// NewExponentialBackOff seeds its current interval from the defaults
	// before the fields above take effect; Reset reseeds it.
	bo.Reset()
	return bo
}
