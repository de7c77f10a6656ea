package rpc

import (
	"errors"
	"testing"

	"sparkbridge/internal/backend"
)

func TestPaymentOption_ToBackend(t *testing.T) {
	tests := []struct {
		name    string
		opt     *PaymentOption
		want    string
		wantErr bool
	}{
		{
			name: "bolt11",
			opt:  &PaymentOption{Bolt11: &Bolt11{Invoice: "lnbc100n1pexample"}},
			want: "bolt11",
		},
		{
			name: "bolt11 create",
			opt:  &PaymentOption{Bolt11Create: &Bolt11Create{AmountSats: 100}},
			want: "bolt11_create",
		},
		{
			name: "spark address",
			opt:  &PaymentOption{SparkAddress: &SparkAddress{Address: "sp1qexample", AmountSats: 10}},
			want: "spark_address",
		},
		{
			name:    "nil option",
			opt:     nil,
			wantErr: true,
		},
		{
			name:    "no variant",
			opt:     &PaymentOption{},
			wantErr: true,
		},
		{
			name: "two variants",
			opt: &PaymentOption{
				Bolt11:       &Bolt11{Invoice: "lnbc100n1pexample"},
				SparkAddress: &SparkAddress{Address: "sp1qexample", AmountSats: 10},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opt.ToBackend()
			if tt.wantErr {
				if !errors.Is(err, backend.ErrInvalidRequest) {
					t.Fatalf("expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Describe() != tt.want {
				t.Errorf("expected %s variant, got %s", tt.want, got.Describe())
			}
		})
	}
}

func TestPaymentFromBackend(t *testing.T) {
	if paymentFromBackend(nil) != nil {
		t.Error("nil payment must stay nil")
	}

	p := paymentFromBackend(&backend.Payment{
		Identifier: "deadbeef",
		Direction:  backend.DirectionOutgoing,
		AmountSats: 100,
		Unit:       backend.UnitSat,
		Status:     backend.StatusIndeterminate,
	})
	if p.Status != "indeterminate" || p.Direction != "outgoing" {
		t.Errorf("unexpected conversion: %+v", p)
	}
	if p.CreatedAt != 0 || p.SettledAt != 0 {
		t.Errorf("zero times must map to zero timestamps, got %d %d", p.CreatedAt, p.SettledAt)
	}
}
