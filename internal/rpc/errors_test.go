package rpc

import (
	"context"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sparkbridge/internal/backend"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("%w: bad option", backend.ErrInvalidRequest), codes.InvalidArgument},
		{fmt.Errorf("%w: too small", backend.ErrInvalidAmount), codes.InvalidArgument},
		{fmt.Errorf("%w: no route", backend.ErrUnroutable), codes.FailedPrecondition},
		{fmt.Errorf("%w: balance too low", backend.ErrInsufficientFunds), codes.ResourceExhausted},
		{fmt.Errorf("%w: htlc pending", backend.ErrTimeout), codes.DeadlineExceeded},
		{fmt.Errorf("%w: unknown hash", backend.ErrNotFound), codes.NotFound},
		{fmt.Errorf("%w: node down", backend.ErrBackendUnavailable), codes.Unavailable},
		{context.Canceled, codes.Canceled},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{fmt.Errorf("something else"), codes.Internal},
	}

	for _, tt := range tests {
		got := status.Code(statusFromError(tt.err))
		if got != tt.want {
			t.Errorf("statusFromError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}

	if statusFromError(nil) != nil {
		t.Error("nil error must stay nil")
	}
}
