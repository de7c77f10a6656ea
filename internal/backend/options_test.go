package backend

import (
	"errors"
	"testing"
)

func TestValidateOption(t *testing.T) {
	tests := []struct {
		name    string
		opt     PaymentOption
		wantErr bool
	}{
		{
			name: "bolt11 with encoded amount",
			opt:  Bolt11Option{Invoice: "lnbc100n1pexample"},
		},
		{
			name: "bolt11 amountless with explicit amount",
			opt:  Bolt11Option{Invoice: "lnbc1pexample", AmountSats: 1000},
		},
		{
			name:    "bolt11 amountless without amount",
			opt:     Bolt11Option{Invoice: "lnbc1pexample"},
			wantErr: true,
		},
		{
			name:    "bolt11 empty invoice",
			opt:     Bolt11Option{},
			wantErr: true,
		},
		{
			name:    "bolt11 garbage invoice",
			opt:     Bolt11Option{Invoice: "notaninvoice"},
			wantErr: true,
		},
		{
			name:    "bolt11 negative amount",
			opt:     Bolt11Option{Invoice: "lnbc100n1pexample", AmountSats: -1},
			wantErr: true,
		},
		{
			name: "bolt11 uppercase invoice accepted",
			opt:  Bolt11Option{Invoice: "LNBC100N1PEXAMPLE"},
		},
		{
			name: "create amountless",
			opt:  Bolt11CreateOption{Description: "coffee"},
		},
		{
			name: "create with amount and expiry",
			opt:  Bolt11CreateOption{AmountSats: 500, ExpirySeconds: 3600},
		},
		{
			name:    "create negative amount",
			opt:     Bolt11CreateOption{AmountSats: -5},
			wantErr: true,
		},
		{
			name:    "create negative expiry",
			opt:     Bolt11CreateOption{AmountSats: 5, ExpirySeconds: -1},
			wantErr: true,
		},
		{
			name: "spark address with amount",
			opt:  SparkAddressOption{Address: "sp1qexampleaddress", AmountSats: 100},
		},
		{
			name:    "spark address without amount",
			opt:     SparkAddressOption{Address: "sp1qexampleaddress"},
			wantErr: true,
		},
		{
			name:    "spark address empty",
			opt:     SparkAddressOption{AmountSats: 100},
			wantErr: true,
		},
		{
			name:    "spark address wrong prefix",
			opt:     SparkAddressOption{Address: "bc1qexample", AmountSats: 100},
			wantErr: true,
		},
		{
			name:    "nil option",
			opt:     nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOption(tt.opt)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				if !errors.Is(err, ErrInvalidRequest) {
					t.Errorf("expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestBolt11HasAmount(t *testing.T) {
	tests := []struct {
		invoice string
		want    bool
	}{
		{"lnbc100n1pexample", true},
		{"lnbc1pexample", false},
		{"lntb500u1pexample", true},
		{"lntbs1pexample", false},
		{"lntbs20m1pexample", true},
		{"lnbcrt10n1pexample", true},
		{"LNBC100N1PEXAMPLE", true},
		{"garbage", false},
	}

	for _, tt := range tests {
		if got := bolt11HasAmount(tt.invoice); got != tt.want {
			t.Errorf("bolt11HasAmount(%q) = %v, want %v", tt.invoice, got, tt.want)
		}
	}
}
