package rpc

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"sparkbridge/internal/logging"
	"sparkbridge/internal/metrics"
)

// UnaryLoggingInterceptor logs each call with its outcome and records
// the request counter.
func UnaryLoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		metrics.RPCRequests.WithLabelValues(info.FullMethod, code.String()).Inc()

		entry := logging.RPC.WithFields(map[string]interface{}{
			"method":   info.FullMethod,
			"code":     code.String(),
			"duration": time.Since(start).String(),
		})
		if err != nil && code != codes.NotFound {
			entry.WithError(err).Warn("rpc failed")
		} else {
			entry.Debug("rpc handled")
		}
		return resp, err
	}
}

// StreamLoggingInterceptor is the streaming counterpart.
func StreamLoggingInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		code := status.Code(err)
		metrics.RPCRequests.WithLabelValues(info.FullMethod, code.String()).Inc()

		logging.RPC.WithFields(map[string]interface{}{
			"method":   info.FullMethod,
			"code":     code.String(),
			"duration": time.Since(start).String(),
		}).Debug("stream closed")
		return err
	}
}

// peerLimiter hands out one token-bucket limiter per remote address.
// Entries for quiet peers are evicted lazily.
type peerLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	peers   map[string]*peerEntry
	lastGC  time.Time
	maxIdle time.Duration
}

type peerEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newPeerLimiter(perSecond float64, burst int) *peerLimiter {
	return &peerLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		peers:   make(map[string]*peerEntry),
		maxIdle: 10 * time.Minute,
	}
}

func (l *peerLimiter) allow(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastGC) > l.maxIdle {
		for k, e := range l.peers {
			if now.Sub(e.lastSeen) > l.maxIdle {
				delete(l.peers, k)
			}
		}
		l.lastGC = now
	}

	e, ok := l.peers[addr]
	if !ok {
		e = &peerEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.peers[addr] = e
	}
	e.lastSeen = now
	return e.limiter.Allow()
}

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}

// UnaryRateLimitInterceptor rejects callers exceeding a per-peer request
// rate with ResourceExhausted. A zero perSecond disables limiting.
func UnaryRateLimitInterceptor(perSecond float64, burst int) grpc.UnaryServerInterceptor {
	if perSecond <= 0 {
		return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
			return handler(ctx, req)
		}
	}
	limiter := newPeerLimiter(perSecond, burst)
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		addr := peerAddr(ctx)
		if !limiter.allow(addr) {
			logging.RPC.WithFields(map[string]interface{}{
				"method": info.FullMethod,
				"peer":   addr,
			}).Warn("rate limit exceeded")
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}
